package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
// Balance writes must go through such a copy so the guard check, the
// balance update, the history rows and the audit row all commit atomically.
func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{db: tx}
}

// Create registers a member with both balances at zero.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *MemberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetForUpdate loads a member row under a row-level lock. Call on a
// repository bound to a transaction. A naive read-compute-write without
// this lock reintroduces lost-update races between concurrent redemptions
// and awards against the same member.
func (r *MemberRepository) GetForUpdate(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := lockForUpdate(r.db.WithContext(ctx)).First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateBalances overwrites both cached balance columns. Only the service
// layer calls this, after the guard has approved the transition.
func (r *MemberRepository) UpdateBalances(ctx context.Context, id uint, loyalty, coin int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"loyalty_point": loyalty,
			"coin":          coin,
		}).Error
}

// ListPaginated pages through all members in id order. The reconciliation
// job uses this to scan the whole table without loading it at once.
func (r *MemberRepository) ListPaginated(ctx context.Context, offset, limit int) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *MemberRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Count(&count).Error
	return count, err
}

// lockForUpdate appends FOR UPDATE on engines that support row locks.
// SQLite (tests) serializes writers at the database level and has no
// FOR UPDATE in its grammar.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return tx
	}
}
