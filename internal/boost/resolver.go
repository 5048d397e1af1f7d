// Package boost resolves the effective point multiplier from the boost
// event catalog. Resolution is a pure function of (now, catalog, default
// percent): no clock reads, no storage access, no caching. The award
// service passes in a catalog snapshot so repeated calls with the same
// inputs always produce the same answer.
package boost

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the outcome of a boost lookup.
type Resolution struct {
	// Active reports whether any boost event governs the award.
	Active bool
	// Percent is the winning boost percentage (e.g. 300 for 3x).
	// Zero when inactive.
	Percent decimal.Decimal
	// Multiplier is Percent/100, or 1 when no event is active.
	Multiplier decimal.Decimal
	// Winning is the governing event, nil when inactive.
	Winning *models.EventSetting
}

// EventPercent classifies an event's setting_value. A positive numeric
// string is a percentage; the literal "true" takes the caller-supplied
// default percentage. Anything else, "false" and non-positive numbers
// included, is a malformed or disabled definition.
func EventPercent(e *models.EventSetting, defaultPercent decimal.Decimal) (decimal.Decimal, error) {
	if e.SettingValue == "true" {
		if !defaultPercent.IsPositive() {
			return decimal.Zero, apperrors.ErrMalformedEventDefinition
		}
		return defaultPercent, nil
	}
	percent, err := decimal.NewFromString(e.SettingValue)
	if err != nil || !percent.IsPositive() {
		return decimal.Zero, apperrors.ErrMalformedEventDefinition
	}
	return percent, nil
}

// Resolve scans the catalog and returns the single effective multiplier at
// the given instant. Events outside their half-open [start, end) window or
// with unclassifiable setting values are excluded; a single bad event never
// blocks resolution. Among simultaneously active events the highest
// percentage wins; ties resolve to the lexicographically smallest
// setting_name so the outcome is deterministic.
func Resolve(now time.Time, catalog []models.EventSetting, defaultPercent decimal.Decimal) Resolution {
	var winning *models.EventSetting
	var winningPercent decimal.Decimal

	for i := range catalog {
		e := &catalog[i]
		if !e.InWindow(now) {
			continue
		}
		percent, err := EventPercent(e, defaultPercent)
		if err != nil {
			continue
		}
		if winning == nil ||
			percent.GreaterThan(winningPercent) ||
			(percent.Equal(winningPercent) && e.SettingName < winning.SettingName) {
			winning = e
			winningPercent = percent
		}
	}

	if winning == nil {
		return Resolution{Multiplier: decimal.NewFromInt(1)}
	}
	return Resolution{
		Active:     true,
		Percent:    winningPercent,
		Multiplier: winningPercent.Div(hundred),
		Winning:    winning,
	}
}

// EffectivePoints applies the multiplier to a base award, rounding half
// away from zero to the nearest whole point.
func EffectivePoints(basePoints int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(basePoints).Mul(multiplier).Round(0).IntPart()
}
