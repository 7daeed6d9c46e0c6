package model

import (
	"time"

	"github.com/google/uuid"
)

// WeeklyAvailability представляет один включённый интервал недельного шаблона
type WeeklyAvailability struct {
	ID          int64     `json:"id"`
	GroupID     uuid.UUID `json:"group_id"` // идентификатор группы связанных интервалов
	MentorID    int64     `json:"mentor_id"`
	Weekday     int       `json:"weekday"`      // 0 = Sunday, 6 = Saturday
	StartHour   int       `json:"start_hour"`   // 0-23
	StartMinute int       `json:"start_minute"` // 0-59
	EndHour     int       `json:"end_hour"`
	EndMinute   int       `json:"end_minute"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StartOn returns the interval start on the given date in loc.
func (w *WeeklyAvailability) StartOn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), w.StartHour, w.StartMinute, 0, 0, loc)
}

// EndOn returns the interval end on the given date in loc.
func (w *WeeklyAvailability) EndOn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), w.EndHour, w.EndMinute, 0, 0, loc)
}
