package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/boost"
	"github.com/MKWcorp/berkomunitas-sub005/internal/config"
	"github.com/MKWcorp/berkomunitas-sub005/internal/ledger"
	"github.com/MKWcorp/berkomunitas-sub005/internal/metrics"
	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	"github.com/MKWcorp/berkomunitas-sub005/internal/repository"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
	"github.com/MKWcorp/berkomunitas-sub005/pkg/logger"
)

// TargetCurrency selects which balance an admin correction touches.
type TargetCurrency string

const (
	CurrencyLoyalty TargetCurrency = "loyalty"
	CurrencyCoin    TargetCurrency = "coin"
)

// AwardService is the single entry point for every flow that changes a
// member's balances. Each operation runs in one database transaction:
// row lock, guard check, balance update, history rows and audit row
// commit or fail together.
type AwardService struct {
	db          *gorm.DB
	memberRepo  *repository.MemberRepository
	historyRepo *repository.HistoryRepository
	logRepo     *repository.TransactionLogRepository
	eventRepo   *repository.EventRepository

	defaultBoostPercent decimal.Decimal

	// Now is the clock used for boost resolution. Overridable in tests.
	Now func() time.Time
}

func NewAwardService(
	db *gorm.DB,
	memberRepo *repository.MemberRepository,
	historyRepo *repository.HistoryRepository,
	logRepo *repository.TransactionLogRepository,
	eventRepo *repository.EventRepository,
	cfg *config.PointsConfig,
) *AwardService {
	return &AwardService{
		db:                  db,
		memberRepo:          memberRepo,
		historyRepo:         historyRepo,
		logRepo:             logRepo,
		eventRepo:           eventRepo,
		defaultBoostPercent: decimal.NewFromFloat(cfg.DefaultBoostPercent),
		Now:                 time.Now,
	}
}

// AwardResult reports the outcome of a committed (or replayed) award.
type AwardResult struct {
	MemberID        uint   `json:"member_id"`
	BasePoints      int64  `json:"base_points"`
	EffectivePoints int64  `json:"effective_points"`
	BoostActive     bool   `json:"boost_active"`
	BoostPercent    string `json:"boost_percent,omitempty"`
	WinningEvent    string `json:"winning_event,omitempty"`
	NewLoyalty      int64  `json:"new_loyalty"`
	NewCoin         int64  `json:"new_coin"`
	Replayed        bool   `json:"replayed,omitempty"`
}

// AwardPoints credits both balances by the boost-adjusted base amount.
// The boost is resolved only for the task-completion earning flow; other
// event types are credited at face value. idempotencyKey may be empty;
// when set, a replay returns the originally committed outcome without
// crediting again.
func (s *AwardService) AwardPoints(ctx context.Context, memberID uint, basePoints int64, eventLabel string, eventType models.EventType, idempotencyKey string) (*AwardResult, error) {
	if basePoints <= 0 {
		return nil, apperrors.New(apperrors.ErrBalanceUpdate, "base points must be positive", nil)
	}

	result := &AwardResult{
		MemberID:        memberID,
		BasePoints:      basePoints,
		EffectivePoints: basePoints,
	}

	// Earning flows consult the boost catalog; the snapshot is read once
	// so resolution is deterministic for this call.
	if eventType == models.EventTypeTaskCompletion {
		catalog, err := s.eventRepo.List(ctx)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrBalanceUpdate, "failed to load event catalog", err)
		}
		resolution := boost.Resolve(s.Now(), catalog, s.defaultBoostPercent)
		if resolution.Active {
			result.BoostActive = true
			result.BoostPercent = resolution.Percent.String()
			result.WinningEvent = resolution.Winning.SettingName
			result.EffectivePoints = boost.EffectivePoints(basePoints, resolution.Multiplier)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			existing, err := s.logRepo.WithTx(tx).GetByIdempotencyKey(ctx, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				result.EffectivePoints = existing.LoyaltyAmount
				result.NewLoyalty = existing.LoyaltyBalanceAfter
				result.NewCoin = existing.CoinBalanceAfter
				result.Replayed = true
				return nil
			}
		}

		member, err := s.memberRepo.WithTx(tx).GetForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &apperrors.MemberNotFoundError{MemberID: memberID}
		}

		old := ledger.Balances{Loyalty: member.LoyaltyPoint, Coin: member.Coin}
		next := ledger.Balances{
			Loyalty: old.Loyalty + result.EffectivePoints,
			Coin:    old.Coin + result.EffectivePoints,
		}
		if err := ledger.Check(memberID, ledger.OpAward, old, next); err != nil {
			metrics.InvariantViolationsTotal.Inc()
			return err
		}

		if err := s.memberRepo.WithTx(tx).UpdateBalances(ctx, memberID, next.Loyalty, next.Coin); err != nil {
			return err
		}

		loyaltyRow := &models.LoyaltyPointHistory{
			MemberID:  memberID,
			Amount:    result.EffectivePoints,
			Event:     eventLabel,
			EventType: eventType,
		}
		if err := s.historyRepo.WithTx(tx).AppendLoyalty(ctx, loyaltyRow); err != nil {
			return err
		}
		coinRow := &models.CoinHistory{
			MemberID:  memberID,
			Amount:    result.EffectivePoints,
			Event:     eventLabel,
			EventType: eventType,
		}
		if err := s.historyRepo.WithTx(tx).AppendCoin(ctx, coinRow); err != nil {
			return err
		}

		entry := &models.TransactionLog{
			MemberID:            memberID,
			TransactionType:     models.TransactionTypeJointAward,
			LoyaltyAmount:       result.EffectivePoints,
			CoinAmount:          result.EffectivePoints,
			LoyaltyBalanceAfter: next.Loyalty,
			CoinBalanceAfter:    next.Coin,
			ReferenceTable:      models.LoyaltyPointHistory{}.TableName(),
			ReferenceID:         strconv.FormatUint(loyaltyRow.ID, 10),
		}
		if idempotencyKey != "" {
			entry.IdempotencyKey = &idempotencyKey
		}
		if err := s.logRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result.NewLoyalty = next.Loyalty
		result.NewCoin = next.Coin
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		metrics.AwardsTotal.Inc()
		metrics.PointsAwardedTotal.Add(float64(result.EffectivePoints))
		logger.WithFields(map[string]interface{}{
			"member_id":        memberID,
			"base_points":      basePoints,
			"effective_points": result.EffectivePoints,
			"boost_active":     result.BoostActive,
			"winning_event":    result.WinningEvent,
			"event_type":       eventType,
		}).Info("points awarded")
	}
	return result, nil
}

// RedeemResult reports the coin balance after a redemption. Loyalty is
// included to make explicit that it did not move.
type RedeemResult struct {
	MemberID   uint  `json:"member_id"`
	Cost       int64 `json:"cost"`
	NewCoin    int64 `json:"new_coin"`
	NewLoyalty int64 `json:"new_loyalty"`
}

// Redeem spends coins against a reward. The balance check happens on the
// locked row inside the transaction, so two racing redemptions cannot both
// pass it. Loyalty is never touched.
func (s *AwardService) Redeem(ctx context.Context, memberID uint, cost int64, rewardReference string) (*RedeemResult, error) {
	if cost <= 0 {
		return nil, apperrors.New(apperrors.ErrBalanceUpdate, "redemption cost must be positive", nil)
	}

	result := &RedeemResult{MemberID: memberID, Cost: cost}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberRepo.WithTx(tx).GetForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &apperrors.MemberNotFoundError{MemberID: memberID}
		}

		if cost > member.Coin {
			return &apperrors.InsufficientBalanceError{
				MemberID:  memberID,
				Available: member.Coin,
				Requested: cost,
			}
		}

		old := ledger.Balances{Loyalty: member.LoyaltyPoint, Coin: member.Coin}
		next := ledger.Balances{Loyalty: old.Loyalty, Coin: old.Coin - cost}
		if err := ledger.Check(memberID, ledger.OpRedemption, old, next); err != nil {
			metrics.InvariantViolationsTotal.Inc()
			return err
		}

		if err := s.memberRepo.WithTx(tx).UpdateBalances(ctx, memberID, next.Loyalty, next.Coin); err != nil {
			return err
		}

		coinRow := &models.CoinHistory{
			MemberID:  memberID,
			Amount:    -cost,
			Event:     "redeem " + rewardReference,
			EventType: models.EventTypeRedemption,
		}
		if err := s.historyRepo.WithTx(tx).AppendCoin(ctx, coinRow); err != nil {
			return err
		}

		entry := &models.TransactionLog{
			MemberID:            memberID,
			TransactionType:     models.TransactionTypeCoinRedemption,
			LoyaltyAmount:       0,
			CoinAmount:          -cost,
			LoyaltyBalanceAfter: next.Loyalty,
			CoinBalanceAfter:    next.Coin,
			ReferenceTable:      "reward_redemptions",
			ReferenceID:         rewardReference,
		}
		if err := s.logRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result.NewCoin = next.Coin
		result.NewLoyalty = next.Loyalty
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RedemptionsTotal.Inc()
	logger.WithFields(map[string]interface{}{
		"member_id": memberID,
		"cost":      cost,
		"reward":    rewardReference,
		"new_coin":  result.NewCoin,
	}).Info("coins redeemed")
	return result, nil
}

// CorrectionResult reports the balance the correction targeted.
type CorrectionResult struct {
	MemberID   uint           `json:"member_id"`
	Currency   TargetCurrency `json:"currency"`
	Amount     int64          `json:"amount"`
	NewBalance int64          `json:"new_balance"`
}

// AdminCorrect applies a single-currency change. eventType distinguishes
// audited corrections (admin_correction) from the legacy manual coin flow
// (admin_manual); both are subject to the same guard rules. A loyalty
// decrease below the current coin balance is rejected, not clamped: the
// member may already have spent that money.
func (s *AwardService) AdminCorrect(ctx context.Context, memberID uint, amount int64, reason string, target TargetCurrency, eventType models.EventType) (*CorrectionResult, error) {
	if amount == 0 {
		return nil, apperrors.New(apperrors.ErrBalanceUpdate, "correction amount must be non-zero", nil)
	}
	if len(strings.TrimSpace(reason)) < 5 {
		return nil, apperrors.New(apperrors.ErrBalanceUpdate, "reason must be at least 5 characters", nil)
	}
	if target != CurrencyLoyalty && target != CurrencyCoin {
		return nil, apperrors.New(apperrors.ErrBalanceUpdate, "target currency must be loyalty or coin", nil)
	}
	if eventType != models.EventTypeAdminCorrection && eventType != models.EventTypeAdminManual {
		eventType = models.EventTypeAdminCorrection
	}
	reason = strings.TrimSpace(reason)

	result := &CorrectionResult{MemberID: memberID, Currency: target, Amount: amount}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberRepo.WithTx(tx).GetForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &apperrors.MemberNotFoundError{MemberID: memberID}
		}

		old := ledger.Balances{Loyalty: member.LoyaltyPoint, Coin: member.Coin}
		next := old
		op := ledger.OpCoinAdjust
		transactionType := models.TransactionTypeCoinCorrection
		if target == CurrencyLoyalty {
			next.Loyalty += amount
			op = ledger.OpLoyaltyAdjust
			transactionType = models.TransactionTypeLoyaltyCorrection
		} else {
			next.Coin += amount
		}

		if err := ledger.Check(memberID, op, old, next); err != nil {
			metrics.InvariantViolationsTotal.Inc()
			return err
		}

		if err := s.memberRepo.WithTx(tx).UpdateBalances(ctx, memberID, next.Loyalty, next.Coin); err != nil {
			return err
		}

		var referenceTable, referenceID string
		if target == CurrencyLoyalty {
			row := &models.LoyaltyPointHistory{
				MemberID:  memberID,
				Amount:    amount,
				Event:     reason,
				EventType: eventType,
			}
			if err := s.historyRepo.WithTx(tx).AppendLoyalty(ctx, row); err != nil {
				return err
			}
			referenceTable = models.LoyaltyPointHistory{}.TableName()
			referenceID = strconv.FormatUint(row.ID, 10)
			result.NewBalance = next.Loyalty
		} else {
			row := &models.CoinHistory{
				MemberID:  memberID,
				Amount:    amount,
				Event:     reason,
				EventType: eventType,
			}
			if err := s.historyRepo.WithTx(tx).AppendCoin(ctx, row); err != nil {
				return err
			}
			referenceTable = models.CoinHistory{}.TableName()
			referenceID = strconv.FormatUint(row.ID, 10)
			result.NewBalance = next.Coin
		}

		entry := &models.TransactionLog{
			MemberID:            memberID,
			TransactionType:     transactionType,
			LoyaltyAmount:       next.Loyalty - old.Loyalty,
			CoinAmount:          next.Coin - old.Coin,
			LoyaltyBalanceAfter: next.Loyalty,
			CoinBalanceAfter:    next.Coin,
			ReferenceTable:      referenceTable,
			ReferenceID:         referenceID,
		}
		return s.logRepo.WithTx(tx).Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.CorrectionsTotal.Inc()
	logger.WithFields(map[string]interface{}{
		"member_id":   memberID,
		"currency":    target,
		"amount":      amount,
		"reason":      reason,
		"new_balance": result.NewBalance,
	}).Info("admin correction applied")
	return result, nil
}
