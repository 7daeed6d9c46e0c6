package model

import "time"

type TimeSlot struct {
	ID          int64     `json:"id"`
	MentorID    int64     `json:"mentor_id"`
	Date        time.Time `json:"date"` // date only, midnight UTC
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"` // admin can disable a slot without deleting it
	IsBooked    bool      `json:"is_booked"`
	BookingID   *int64    `json:"booking_id"` // указатель - может быть nil
	Fallback    bool      `json:"fallback,omitempty"` // synthesized slot, not a stored row
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsFree checks if the slot can be offered for booking
func (s *TimeSlot) IsFree() bool {
	return s.IsAvailable && !s.IsBooked
}

// Duration returns the slot length
func (s *TimeSlot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
