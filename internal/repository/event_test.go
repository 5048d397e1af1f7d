package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	"github.com/MKWcorp/berkomunitas-sub005/internal/repository"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

func newEventRepo(t *testing.T) *repository.EventRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.EventSetting{}))
	return repository.NewEventRepository(db)
}

func TestEventRepository_WindowValidation(t *testing.T) {
	repo := newEventRepo(t)
	ctx := context.Background()
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	err := repo.Create(ctx, &models.EventSetting{
		SettingName:  "bad",
		SettingValue: "300",
		StartDate:    start,
		EndDate:      start,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEventWindow)

	err = repo.Create(ctx, &models.EventSetting{
		SettingName:  "inverted",
		SettingValue: "300",
		StartDate:    start,
		EndDate:      start.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEventWindow)

	good := &models.EventSetting{
		SettingName:  "weekend_boost",
		SettingValue: "300",
		StartDate:    start,
		EndDate:      start.Add(48 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, good))

	good.EndDate = good.StartDate
	assert.ErrorIs(t, repo.Update(ctx, good), apperrors.ErrInvalidEventWindow)
}

func TestEventRepository_UpdateAndDeleteUnknownName(t *testing.T) {
	repo := newEventRepo(t)
	ctx := context.Background()
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	err := repo.Update(ctx, &models.EventSetting{
		SettingName:  "missing",
		SettingValue: "300",
		StartDate:    start,
		EndDate:      start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), gorm.ErrRecordNotFound)
}

func TestEventRepository_GetByName(t *testing.T) {
	repo := newEventRepo(t)
	ctx := context.Background()
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.EventSetting{
		SettingName:  "launch",
		SettingValue: "true",
		StartDate:    start,
		EndDate:      start.Add(time.Hour),
	}))

	found, err := repo.GetByName(ctx, "launch")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "true", found.SettingValue)

	missing, err := repo.GetByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
