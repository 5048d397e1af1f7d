// Package ledger implements the consistency guard for the dual-currency
// balances. Every balance write is classified into a transition class and
// checked against the invariant 0 <= coin <= loyalty_point before commit.
// The guard is a pure decision function; the service layer invokes it inside
// the same database transaction as the write, so no violating state is ever
// observable.
package ledger

import (
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

// Balances is a snapshot of the two cached balance columns.
type Balances struct {
	Loyalty int64
	Coin    int64
}

// Operation identifies the flow attempting the write. The legal transition
// classes differ per operation.
type Operation string

const (
	// OpAward is an earning flow: both balances increase by the same amount.
	OpAward Operation = "award"
	// OpRedemption spends coins: coin-only decrease.
	OpRedemption Operation = "redemption"
	// OpCoinAdjust is an admin manual coin change, either direction.
	OpCoinAdjust Operation = "coin_adjust"
	// OpLoyaltyAdjust is an admin loyalty correction, either direction.
	OpLoyaltyAdjust Operation = "loyalty_adjust"
	// OpSystemSync is the reconciliation repair path. It is the only
	// operation allowed to move the balances independently, since it
	// restores them from the history sums.
	OpSystemSync Operation = "system_sync"
)

// TransitionClass is determined purely by comparing old and new balances.
type TransitionClass string

const (
	ClassNoChange    TransitionClass = "no_change"
	ClassCoinOnly    TransitionClass = "coin_only"
	ClassLoyaltyOnly TransitionClass = "loyalty_only"
	ClassJoint       TransitionClass = "joint"
)

// Classify derives the transition class from the old and new balances.
func Classify(old, new Balances) TransitionClass {
	loyaltyChanged := new.Loyalty != old.Loyalty
	coinChanged := new.Coin != old.Coin

	switch {
	case loyaltyChanged && coinChanged:
		return ClassJoint
	case loyaltyChanged:
		return ClassLoyaltyOnly
	case coinChanged:
		return ClassCoinOnly
	default:
		return ClassNoChange
	}
}

// Check validates a proposed transition for the given operation. It returns
// nil if the write may proceed, or an *errors.InvariantViolationError
// carrying the rejected class and both attempted values. Violations are
// never clamped; the caller must re-derive the operation.
func Check(memberID uint, op Operation, old, new Balances) error {
	class := Classify(old, new)

	reject := func(reason string) error {
		return &apperrors.InvariantViolationError{
			MemberID:   memberID,
			Transition: string(class),
			OldLoyalty: old.Loyalty,
			OldCoin:    old.Coin,
			NewLoyalty: new.Loyalty,
			NewCoin:    new.Coin,
			Reason:     reason,
		}
	}

	// Safety floor applies to every class, including no-ops on rows that
	// were already corrupted by manual edits.
	if new.Loyalty < 0 {
		return reject("loyalty_point must not go negative")
	}
	if new.Coin < 0 {
		return reject("coin must not go negative")
	}
	if new.Coin > new.Loyalty {
		return reject("coin must not exceed loyalty_point")
	}

	if class == ClassNoChange {
		return nil
	}

	switch op {
	case OpAward:
		if class != ClassJoint {
			return reject("awards must change both balances")
		}
		deltaLoyalty := new.Loyalty - old.Loyalty
		deltaCoin := new.Coin - old.Coin
		if deltaLoyalty != deltaCoin {
			return reject("awards must credit both balances equally")
		}
		if deltaLoyalty < 0 {
			return reject("awards must not decrease balances")
		}
	case OpRedemption:
		if class != ClassCoinOnly {
			return reject("redemption must not touch loyalty_point")
		}
		if new.Coin >= old.Coin {
			return reject("redemption must decrease coin")
		}
	case OpCoinAdjust:
		if class != ClassCoinOnly {
			return reject("coin adjustment must not touch loyalty_point")
		}
	case OpLoyaltyAdjust:
		if class != ClassLoyaltyOnly {
			return reject("loyalty adjustment must not touch coin")
		}
	case OpSystemSync:
		// Any class: reconciliation restores the caches from the history
		// sums and may move either column.
	default:
		return reject("unknown operation")
	}

	return nil
}
