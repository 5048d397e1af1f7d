package boost_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKWcorp/berkomunitas-sub005/internal/boost"
	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
)

var (
	now            = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	defaultPercent = decimal.NewFromInt(200)
)

func event(name, value string, start, end time.Time) models.EventSetting {
	return models.EventSetting{
		SettingName:  name,
		SettingValue: value,
		StartDate:    start,
		EndDate:      end,
	}
}

func covering(name, value string) models.EventSetting {
	return event(name, value, now.Add(-time.Hour), now.Add(time.Hour))
}

func TestResolve_NoEvents(t *testing.T) {
	resolution := boost.Resolve(now, nil, defaultPercent)

	assert.False(t, resolution.Active)
	assert.Nil(t, resolution.Winning)
	assert.True(t, resolution.Multiplier.Equal(decimal.NewFromInt(1)))
}

func TestResolve_NumericPercent(t *testing.T) {
	catalog := []models.EventSetting{covering("weekend_boost", "300")}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	require.True(t, resolution.Active)
	assert.Equal(t, "weekend_boost", resolution.Winning.SettingName)
	assert.True(t, resolution.Percent.Equal(decimal.NewFromInt(300)))
	assert.True(t, resolution.Multiplier.Equal(decimal.NewFromInt(3)))
}

func TestResolve_FlagEventUsesDefault(t *testing.T) {
	catalog := []models.EventSetting{covering("launch_boost", "true")}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	require.True(t, resolution.Active)
	assert.True(t, resolution.Percent.Equal(defaultPercent))
	assert.True(t, resolution.Multiplier.Equal(decimal.NewFromInt(2)))
}

func TestResolve_MalformedValuesExcluded(t *testing.T) {
	catalog := []models.EventSetting{
		covering("disabled", "false"),
		covering("zero", "0"),
		covering("negative", "-50"),
		covering("garbage", "not-a-number"),
	}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	assert.False(t, resolution.Active)
	assert.Nil(t, resolution.Winning)
}

func TestResolve_BadEventDoesNotBlockOthers(t *testing.T) {
	catalog := []models.EventSetting{
		covering("garbage", "???"),
		covering("good", "150"),
	}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	require.True(t, resolution.Active)
	assert.Equal(t, "good", resolution.Winning.SettingName)
}

func TestResolve_WindowIsHalfOpen(t *testing.T) {
	start := now
	end := now.Add(time.Hour)

	// Active exactly at start_date.
	resolution := boost.Resolve(start, []models.EventSetting{event("e", "300", start, end)}, defaultPercent)
	assert.True(t, resolution.Active)

	// Inactive exactly at end_date.
	resolution = boost.Resolve(end, []models.EventSetting{event("e", "300", start, end)}, defaultPercent)
	assert.False(t, resolution.Active)

	// Empty interval is never active.
	resolution = boost.Resolve(start, []models.EventSetting{event("e", "300", start, start)}, defaultPercent)
	assert.False(t, resolution.Active)
}

func TestResolve_HighestPercentWins(t *testing.T) {
	catalog := []models.EventSetting{
		covering("first_created", "300"),
		covering("bigger", "500"),
	}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	require.True(t, resolution.Active)
	assert.Equal(t, "bigger", resolution.Winning.SettingName)
	assert.True(t, resolution.Percent.Equal(decimal.NewFromInt(500)))
}

func TestResolve_TieBreaksOnSettingName(t *testing.T) {
	catalog := []models.EventSetting{
		covering("zeta", "300"),
		covering("alpha", "300"),
		covering("mid", "300"),
	}

	resolution := boost.Resolve(now, catalog, defaultPercent)

	require.True(t, resolution.Active)
	assert.Equal(t, "alpha", resolution.Winning.SettingName)
}

func TestResolve_Deterministic(t *testing.T) {
	catalog := []models.EventSetting{
		covering("a", "300"),
		covering("b", "true"),
		covering("c", "garbage"),
	}

	first := boost.Resolve(now, catalog, defaultPercent)
	for i := 0; i < 10; i++ {
		again := boost.Resolve(now, catalog, defaultPercent)
		assert.Equal(t, first.Active, again.Active)
		assert.Equal(t, first.Winning.SettingName, again.Winning.SettingName)
		assert.True(t, first.Multiplier.Equal(again.Multiplier))
	}
}

func TestEffectivePoints(t *testing.T) {
	three := decimal.NewFromInt(3)
	assert.Equal(t, int64(30), boost.EffectivePoints(10, three))

	// 150% of 5 = 7.5, rounds half away from zero.
	oneFive := decimal.NewFromFloat(1.5)
	assert.Equal(t, int64(8), boost.EffectivePoints(5, oneFive))

	one := decimal.NewFromInt(1)
	assert.Equal(t, int64(10), boost.EffectivePoints(10, one))
}
