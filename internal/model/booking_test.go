package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBooking_CanTransition(t *testing.T) {
	testCases := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{"pending to confirmed", BookingStatusPending, BookingStatusConfirmed, true},
		{"pending to cancelled", BookingStatusPending, BookingStatusCancelled, true},
		{"pending to completed", BookingStatusPending, BookingStatusCompleted, false},
		{"confirmed to cancelled", BookingStatusConfirmed, BookingStatusCancelled, true},
		{"confirmed to completed", BookingStatusConfirmed, BookingStatusCompleted, true},
		{"confirmed to pending", BookingStatusConfirmed, BookingStatusPending, false},
		{"cancelled is terminal", BookingStatusCancelled, BookingStatusConfirmed, false},
		{"cancelled cannot re-cancel", BookingStatusCancelled, BookingStatusCancelled, false},
		{"completed is terminal", BookingStatusCompleted, BookingStatusCancelled, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Booking{Status: tc.from}
			assert.Equal(t, tc.allowed, b.CanTransition(tc.to))
		})
	}
}

func TestBooking_IsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingStatusPending}).IsActive())
	assert.True(t, (&Booking{Status: BookingStatusConfirmed}).IsActive())
	assert.False(t, (&Booking{Status: BookingStatusCancelled}).IsActive())
	assert.False(t, (&Booking{Status: BookingStatusCompleted}).IsActive())
}

func TestBooking_IsPast(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	past := &Booking{EndTime: now.Add(-time.Hour)}
	future := &Booking{EndTime: now.Add(time.Hour)}

	assert.True(t, past.IsPast(now))
	assert.False(t, future.IsPast(now))
}

func TestTimeSlot_IsFree(t *testing.T) {
	assert.True(t, (&TimeSlot{IsAvailable: true}).IsFree())
	assert.False(t, (&TimeSlot{IsAvailable: true, IsBooked: true}).IsFree())
	assert.False(t, (&TimeSlot{IsAvailable: false}).IsFree())
}
