package service

import (
	"context"
	"time"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
	"github.com/MKWcorp/berkomunitas-sub005/pkg/logger"
)

func parseEventDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.New(apperrors.ErrBalanceUpdate, "dates must be RFC 3339 timestamps", nil)
	}
	return t, nil
}

// CreateEvent persists a boost event after validating its window. Expiry
// is never stored; it is always derived from the clock against end_date.
func (s *AwardService) CreateEvent(ctx context.Context, settingName, settingValue, startDate, endDate, description string) (*models.EventSetting, error) {
	start, err := parseEventDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseEventDate(endDate)
	if err != nil {
		return nil, err
	}

	event := &models.EventSetting{
		SettingName:  settingName,
		SettingValue: settingValue,
		StartDate:    start,
		EndDate:      end,
		Description:  description,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"setting_name":  settingName,
		"setting_value": settingValue,
		"start_date":    start,
		"end_date":      end,
	}).Info("boost event created")
	return event, nil
}

func (s *AwardService) UpdateEvent(ctx context.Context, settingName, settingValue, startDate, endDate, description string) (*models.EventSetting, error) {
	start, err := parseEventDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseEventDate(endDate)
	if err != nil {
		return nil, err
	}

	event := &models.EventSetting{
		SettingName:  settingName,
		SettingValue: settingValue,
		StartDate:    start,
		EndDate:      end,
		Description:  description,
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.eventRepo.GetByName(ctx, settingName)
}

func (s *AwardService) DeleteEvent(ctx context.Context, settingName string) error {
	return s.eventRepo.Delete(ctx, settingName)
}

// ListTransactions returns the audit log for a member, newest first.
func (s *AwardService) ListTransactions(ctx context.Context, memberID uint, limit int) ([]models.TransactionLog, error) {
	return s.logRepo.ListByMember(ctx, memberID, limit)
}
