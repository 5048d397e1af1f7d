package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// AppendLoyalty writes one loyalty delta row. History is append-only;
// there are no update or delete methods on this repository.
func (r *HistoryRepository) AppendLoyalty(ctx context.Context, h *models.LoyaltyPointHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// AppendCoin writes one coin delta row.
func (r *HistoryRepository) AppendCoin(ctx context.Context, h *models.CoinHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// SumLoyalty returns the loyalty history total for a member. This is the
// authoritative balance; members.loyalty_point is a cache of it.
func (r *HistoryRepository) SumLoyalty(ctx context.Context, memberID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LoyaltyPointHistory{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumCoin returns the coin history total for a member.
func (r *HistoryRepository) SumCoin(ctx context.Context, memberID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CoinHistory{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *HistoryRepository) ListLoyaltyByMember(ctx context.Context, memberID uint, limit int) ([]models.LoyaltyPointHistory, error) {
	var histories []models.LoyaltyPointHistory
	query := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&histories).Error
	return histories, err
}

func (r *HistoryRepository) ListCoinByMember(ctx context.Context, memberID uint, limit int) ([]models.CoinHistory, error) {
	var histories []models.CoinHistory
	query := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&histories).Error
	return histories, err
}
