package service

import (
	"context"

	"github.com/MKWcorp/berkomunitas-sub005/internal/boost"
	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

// MemberSummary combines the cached balances with a consistency verdict
// and recent activity, for the member profile and admin surfaces.
type MemberSummary struct {
	Member        *models.Member               `json:"member"`
	IsConsistent  bool                         `json:"is_consistent"`
	LoyaltySum    int64                        `json:"loyalty_history_sum"`
	CoinSum       int64                        `json:"coin_history_sum"`
	RecentLoyalty []models.LoyaltyPointHistory `json:"recent_loyalty_history"`
	RecentCoin    []models.CoinHistory         `json:"recent_coin_history"`
	RecentLog     []models.TransactionLog      `json:"recent_transactions"`
}

// GetBalance returns the cached balances for a member.
func (s *AwardService) GetBalance(ctx context.Context, memberID uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, &apperrors.MemberNotFoundError{MemberID: memberID}
	}
	return member, nil
}

// GetSummary reports balances, history sums and recent activity. The
// consistency verdict compares the caches against the history sums and
// the coin ceiling; a false verdict means the reconciliation job has work.
func (s *AwardService) GetSummary(ctx context.Context, memberID uint) (*MemberSummary, error) {
	member, err := s.GetBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	loyaltySum, err := s.historyRepo.SumLoyalty(ctx, memberID)
	if err != nil {
		return nil, err
	}
	coinSum, err := s.historyRepo.SumCoin(ctx, memberID)
	if err != nil {
		return nil, err
	}

	recentLoyalty, err := s.historyRepo.ListLoyaltyByMember(ctx, memberID, 5)
	if err != nil {
		return nil, err
	}
	recentCoin, err := s.historyRepo.ListCoinByMember(ctx, memberID, 5)
	if err != nil {
		return nil, err
	}
	recentLog, err := s.logRepo.ListByMember(ctx, memberID, 5)
	if err != nil {
		return nil, err
	}

	return &MemberSummary{
		Member: member,
		IsConsistent: member.Coin <= member.LoyaltyPoint &&
			member.LoyaltyPoint == loyaltySum &&
			member.Coin == coinSum,
		LoyaltySum:    loyaltySum,
		CoinSum:       coinSum,
		RecentLoyalty: recentLoyalty,
		RecentCoin:    recentCoin,
		RecentLog:     recentLog,
	}, nil
}

// EventView is an event annotated with its clock-derived status and
// parsed boost percentage for display surfaces.
type EventView struct {
	models.EventSetting
	Status       models.EventStatus `json:"status"`
	BoostPercent string             `json:"boost_percent,omitempty"`
}

// BoostStatus is the read-only answer for the boost banner. Serving it
// never mutates state.
type BoostStatus struct {
	Active       bool                 `json:"active"`
	Multiplier   string               `json:"multiplier"`
	BoostPercent string               `json:"boost_percent,omitempty"`
	WinningEvent *models.EventSetting `json:"winning_event,omitempty"`
	Events       []EventView          `json:"events"`
}

// CurrentBoost resolves the boost at the current instant and annotates the
// full catalog for display.
func (s *AwardService) CurrentBoost(ctx context.Context) (*BoostStatus, error) {
	catalog, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	resolution := boost.Resolve(now, catalog, s.defaultBoostPercent)

	status := &BoostStatus{
		Active:       resolution.Active,
		Multiplier:   resolution.Multiplier.String(),
		WinningEvent: resolution.Winning,
		Events:       make([]EventView, 0, len(catalog)),
	}
	if resolution.Active {
		status.BoostPercent = resolution.Percent.String()
	}

	for i := range catalog {
		view := EventView{
			EventSetting: catalog[i],
			Status:       catalog[i].Status(now),
		}
		if percent, err := boost.EventPercent(&catalog[i], s.defaultBoostPercent); err == nil {
			view.BoostPercent = percent.String()
		}
		status.Events = append(status.Events, view)
	}
	return status, nil
}

// RegisterMember creates a member with both balances at zero.
func (s *AwardService) RegisterMember(ctx context.Context, displayName string) (*models.Member, error) {
	member := &models.Member{DisplayName: displayName}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
