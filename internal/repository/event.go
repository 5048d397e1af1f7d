package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create persists a new boost event. The window invariant
// start_date < end_date is checked before anything is written.
func (r *EventRepository) Create(ctx context.Context, event *models.EventSetting) error {
	if !event.StartDate.Before(event.EndDate) {
		return apperrors.ErrInvalidEventWindow
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// Update rewrites an existing event by setting_name, re-validating the
// window invariant.
func (r *EventRepository) Update(ctx context.Context, event *models.EventSetting) error {
	if !event.StartDate.Before(event.EndDate) {
		return apperrors.ErrInvalidEventWindow
	}
	result := r.db.WithContext(ctx).
		Model(&models.EventSetting{}).
		Where("setting_name = ?", event.SettingName).
		Updates(map[string]interface{}{
			"setting_value": event.SettingValue,
			"start_date":    event.StartDate,
			"end_date":      event.EndDate,
			"description":   event.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EventRepository) GetByName(ctx context.Context, settingName string) (*models.EventSetting, error) {
	var event models.EventSetting
	err := r.db.WithContext(ctx).
		Where("setting_name = ?", settingName).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns the full catalog, newest window first. The award service
// treats the result as a read-only snapshot for one resolution call.
func (r *EventRepository) List(ctx context.Context) ([]models.EventSetting, error) {
	var events []models.EventSetting
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) Delete(ctx context.Context, settingName string) error {
	result := r.db.WithContext(ctx).
		Where("setting_name = ?", settingName).
		Delete(&models.EventSetting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
