package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/ledger"
	"github.com/MKWcorp/berkomunitas-sub005/internal/metrics"
	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	"github.com/MKWcorp/berkomunitas-sub005/internal/repository"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
	"github.com/MKWcorp/berkomunitas-sub005/pkg/logger"
)

// ReconcileService repairs members whose cached balances drifted from
// their history sums or whose coin exceeds loyalty. History is the source
// of truth for both currencies; loyalty is never raised to match an
// inflated coin balance. Each member is repaired in its own transaction,
// so a failure never rolls back unrelated repairs, and a clean member
// costs zero writes, which makes the whole job idempotent.
type ReconcileService struct {
	db          *gorm.DB
	memberRepo  *repository.MemberRepository
	historyRepo *repository.HistoryRepository
	logRepo     *repository.TransactionLogRepository
	pageSize    int
}

func NewReconcileService(
	db *gorm.DB,
	memberRepo *repository.MemberRepository,
	historyRepo *repository.HistoryRepository,
	logRepo *repository.TransactionLogRepository,
	pageSize int,
) *ReconcileService {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &ReconcileService{
		db:          db,
		memberRepo:  memberRepo,
		historyRepo: historyRepo,
		logRepo:     logRepo,
		pageSize:    pageSize,
	}
}

// MemberRepair describes one committed repair.
type MemberRepair struct {
	MemberID   uint  `json:"member_id"`
	OldLoyalty int64 `json:"old_loyalty"`
	OldCoin    int64 `json:"old_coin"`
	NewLoyalty int64 `json:"new_loyalty"`
	NewCoin    int64 `json:"new_coin"`
	// CoinClamp is the compensating coin history delta appended when the
	// coin history sum exceeded the loyalty sum. Zero for cache-only fixes.
	CoinClamp int64 `json:"coin_clamp,omitempty"`
}

// ReconcileReport summarizes one full run.
type ReconcileReport struct {
	Scanned  int            `json:"scanned"`
	Repaired int            `json:"repaired"`
	Failed   int            `json:"failed"`
	Repairs  []MemberRepair `json:"repairs,omitempty"`
}

// ReconcileAll scans every member in pages and repairs each violator in
// an independent transaction. Per-member failures are logged and counted,
// never aborting the batch; cancelling the context stops the scan between
// members.
func (s *ReconcileService) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	for offset := 0; ; offset += s.pageSize {
		members, err := s.memberRepo.ListPaginated(ctx, offset, s.pageSize)
		if err != nil {
			return report, apperrors.New(apperrors.ErrReconciliation, "member scan failed", err)
		}
		if len(members) == 0 {
			break
		}

		for i := range members {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Scanned++

			repair, err := s.ReconcileMember(ctx, members[i].ID)
			if err != nil {
				report.Failed++
				metrics.ReconcileFailuresTotal.Inc()
				logger.WithFields(map[string]interface{}{
					"member_id": members[i].ID,
					"error":     err.Error(),
				}).Error("member reconciliation failed")
				continue
			}
			if repair != nil {
				report.Repaired++
				report.Repairs = append(report.Repairs, *repair)
			}
		}

		if len(members) < s.pageSize {
			break
		}
	}

	logger.WithFields(map[string]interface{}{
		"scanned":  report.Scanned,
		"repaired": report.Repaired,
		"failed":   report.Failed,
	}).Info("reconciliation run finished")
	return report, nil
}

// ReconcileMember repairs a single member. Returns nil when the member is
// already consistent, in which case nothing is written. The repair:
//
//  1. refreshes both cached balances from the history sums, then
//  2. if the coin history sum exceeds the loyalty sum, appends a
//     compensating system_sync coin delta clamping coin down to loyalty.
//
// Negative history sums are reported as errors, never patched over.
func (s *ReconcileService) ReconcileMember(ctx context.Context, memberID uint) (*MemberRepair, error) {
	var repair *MemberRepair

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberRepo.WithTx(tx).GetForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &apperrors.MemberNotFoundError{MemberID: memberID}
		}

		loyaltySum, err := s.historyRepo.WithTx(tx).SumLoyalty(ctx, memberID)
		if err != nil {
			return err
		}
		coinSum, err := s.historyRepo.WithTx(tx).SumCoin(ctx, memberID)
		if err != nil {
			return err
		}

		targetLoyalty := loyaltySum
		targetCoin := coinSum
		var coinClamp int64
		if coinSum > loyaltySum {
			coinClamp = loyaltySum - coinSum
			targetCoin = loyaltySum
		}

		if targetLoyalty == member.LoyaltyPoint && targetCoin == member.Coin && coinClamp == 0 {
			return nil
		}

		if targetLoyalty < 0 || targetCoin < 0 {
			return apperrors.New(apperrors.ErrReconciliation,
				"history sums are negative; manual investigation required", nil)
		}

		old := ledger.Balances{Loyalty: member.LoyaltyPoint, Coin: member.Coin}
		next := ledger.Balances{Loyalty: targetLoyalty, Coin: targetCoin}
		if err := ledger.Check(memberID, ledger.OpSystemSync, old, next); err != nil {
			metrics.InvariantViolationsTotal.Inc()
			return err
		}

		if coinClamp != 0 {
			clampRow := &models.CoinHistory{
				MemberID:  memberID,
				Amount:    coinClamp,
				Event:     "reconciliation: clamp coin to loyalty_point",
				EventType: models.EventTypeSystemSync,
			}
			if err := s.historyRepo.WithTx(tx).AppendCoin(ctx, clampRow); err != nil {
				return err
			}
		}

		if err := s.memberRepo.WithTx(tx).UpdateBalances(ctx, memberID, next.Loyalty, next.Coin); err != nil {
			return err
		}

		entry := &models.TransactionLog{
			MemberID:            memberID,
			TransactionType:     models.TransactionTypeSystemSync,
			LoyaltyAmount:       next.Loyalty - old.Loyalty,
			CoinAmount:          next.Coin - old.Coin,
			LoyaltyBalanceAfter: next.Loyalty,
			CoinBalanceAfter:    next.Coin,
			ReferenceTable:      models.Member{}.TableName(),
			ReferenceID:         "reconciliation",
		}
		if err := s.logRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		repair = &MemberRepair{
			MemberID:   memberID,
			OldLoyalty: old.Loyalty,
			OldCoin:    old.Coin,
			NewLoyalty: next.Loyalty,
			NewCoin:    next.Coin,
			CoinClamp:  coinClamp,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if repair != nil {
		metrics.ReconcileRepairsTotal.Inc()
		logger.WithFields(map[string]interface{}{
			"member_id":   repair.MemberID,
			"old_loyalty": repair.OldLoyalty,
			"old_coin":    repair.OldCoin,
			"new_loyalty": repair.NewLoyalty,
			"new_coin":    repair.NewCoin,
			"coin_clamp":  repair.CoinClamp,
		}).Info("member repaired")
	}
	return repair, nil
}
