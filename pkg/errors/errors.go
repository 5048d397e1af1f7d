package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrConfigLoad      = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect = "DATABASE_CONNECT_ERROR"
	ErrMigration       = "MIGRATION_ERROR"
	ErrBalanceUpdate   = "BALANCE_UPDATE_ERROR"
	ErrReconciliation  = "RECONCILIATION_ERROR"
)

// Sentinel errors for the ledger core. Callers branch on these with
// errors.Is; the structured types below carry the attempted values.
var (
	// ErrInvariantViolation: a write would break 0 <= coin <= loyalty_point.
	// Never corrected silently; the caller must re-derive the operation.
	ErrInvariantViolation = errors.New("balance invariant violation")

	// ErrInsufficientBalance: redemption cost exceeds spendable coin.
	// Recoverable by the caller; do not retry automatically.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrMemberNotFound: referenced member id does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMalformedEventDefinition: an event's setting_value is neither a
	// flag nor a positive percentage. The resolver skips such events.
	ErrMalformedEventDefinition = errors.New("malformed event definition")

	// ErrDuplicateIdempotencyKey: an award with the same idempotency key
	// was already committed. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidEventWindow: an event definition with start_date >= end_date.
	ErrInvalidEventWindow = errors.New("invalid event window: start_date must precede end_date")
)

// InvariantViolationError reports the rejected transition with both
// attempted values so an operator can decide what to do.
type InvariantViolationError struct {
	MemberID   uint
	Transition string
	OldLoyalty int64
	OldCoin    int64
	NewLoyalty int64
	NewCoin    int64
	Reason     string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation (%s) for member %d: loyalty %d -> %d, coin %d -> %d: %s",
		e.Transition, e.MemberID, e.OldLoyalty, e.NewLoyalty, e.OldCoin, e.NewCoin, e.Reason)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}

// InsufficientBalanceError reports a coin shortage on redemption.
type InsufficientBalanceError struct {
	MemberID  uint
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for member %d: has %d coins, needs %d",
		e.MemberID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// MemberNotFoundError identifies the missing member id.
type MemberNotFoundError struct {
	MemberID uint
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member %d not found", e.MemberID)
}

func (e *MemberNotFoundError) Unwrap() error {
	return ErrMemberNotFound
}

// IsClientError reports whether the error is caused by the request itself
// rather than by system state, and should map to a 4xx response.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrInvalidEventWindow)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}
