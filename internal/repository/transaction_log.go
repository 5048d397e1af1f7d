package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
)

type TransactionLogRepository struct {
	db *gorm.DB
}

func NewTransactionLogRepository(db *gorm.DB) *TransactionLogRepository {
	return &TransactionLogRepository{db: db}
}

func (r *TransactionLogRepository) WithTx(tx *gorm.DB) *TransactionLogRepository {
	return &TransactionLogRepository{db: tx}
}

// Append writes one audit row. Called inside the same transaction as the
// balance write, so the write fails atomically if the log write fails.
func (r *TransactionLogRepository) Append(ctx context.Context, entry *models.TransactionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByIdempotencyKey returns the committed entry for a key, or nil when
// the key has not been used.
func (r *TransactionLogRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.TransactionLog, error) {
	var entry models.TransactionLog
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *TransactionLogRepository) ListByMember(ctx context.Context, memberID uint, limit int) ([]models.TransactionLog, error) {
	var entries []models.TransactionLog
	query := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

func (r *TransactionLogRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionLog{}).
		Count(&count).Error
	return count, err
}

func (r *TransactionLogRepository) CountByType(ctx context.Context, transactionType models.TransactionType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionLog{}).
		Where("transaction_type = ?", transactionType).
		Count(&count).Error
	return count, err
}
