package models

import (
	"time"
)

// EventStatus is derived from the clock, never stored.
type EventStatus string

const (
	EventStatusActive   EventStatus = "active"
	EventStatusUpcoming EventStatus = "upcoming"
	EventStatusExpired  EventStatus = "expired"
)

// EventSetting is a boost event definition. SettingValue is either the
// literal "true"/"false" for flag-style activation or a numeric percentage
// string ("300" means 3x). The window is half-open: [StartDate, EndDate).
type EventSetting struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SettingName  string    `gorm:"size:100;not null;uniqueIndex:uk_event_setting_name" json:"setting_name"`
	SettingValue string    `gorm:"size:50;not null" json:"setting_value"`
	StartDate    time.Time `gorm:"not null;index" json:"start_date"`
	EndDate      time.Time `gorm:"not null;index" json:"end_date"`
	Description  string    `gorm:"size:500" json:"description"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EventSetting) TableName() string {
	return "event_settings"
}

// InWindow reports whether now falls inside [StartDate, EndDate). An event
// with StartDate == EndDate is never in window.
func (e *EventSetting) InWindow(now time.Time) bool {
	return !now.Before(e.StartDate) && now.Before(e.EndDate)
}

// Status classifies the event relative to now, for display surfaces.
func (e *EventSetting) Status(now time.Time) EventStatus {
	switch {
	case e.InWindow(now):
		return EventStatusActive
	case now.Before(e.StartDate):
		return EventStatusUpcoming
	default:
		return EventStatusExpired
	}
}
