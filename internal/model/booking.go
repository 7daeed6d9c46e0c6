package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает подтверждения
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
	BookingStatusCompleted BookingStatus = "completed" // Завершено
)

type Booking struct {
	ID           int64         `json:"id"`
	Reference    uuid.UUID     `json:"reference"`
	UserID       int64         `json:"user_id"`
	UserEmail    string        `json:"user_email"`
	MentorID     int64         `json:"mentor_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Status       BookingStatus `json:"status"`
	EventID      string        `json:"event_id"` // external calendar event
	MeetLink     string        `json:"meet_link"`
	CalendarLink string        `json:"calendar_link"`
	Attendees    []string      `json:"attendees"`
	Notes        string        `json:"notes"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Mentor *Mentor     `json:"mentor,omitempty"`
	Slots  []*TimeSlot `json:"slots,omitempty"`
}

// CanTransition reports whether the status machine allows moving to next.
// Cancelled and completed are terminal.
func (b *Booking) CanTransition(next BookingStatus) bool {
	switch b.Status {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled || next == BookingStatusCompleted
	default:
		return false
	}
}

// IsActive checks if the booking still holds its slots
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// IsPast checks if the session has already ended
func (b *Booking) IsPast(now time.Time) bool {
	return b.EndTime.Before(now)
}

// StatusChange is one row of the append-only booking audit trail
type StatusChange struct {
	ID         int64         `json:"id"`
	BookingID  int64         `json:"booking_id"`
	FromStatus BookingStatus `json:"from_status"`
	ToStatus   BookingStatus `json:"to_status"`
	Note       string        `json:"note,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}
