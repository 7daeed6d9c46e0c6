package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EligibilityService derives the earliest instant a user may start a new
// session under the minimum-gap policy. The bookings table is the single
// authoritative history source; the calendar is never consulted for history.
type EligibilityService struct {
	bookings BookingStore
	gapDays  int
	logger   *zap.Logger
}

func NewEligibilityService(bookings BookingStore, gapDays int, logger *zap.Logger) *EligibilityService {
	return &EligibilityService{
		bookings: bookings,
		gapDays:  gapDays,
		logger:   logger,
	}
}

// EarliestStart returns the eligibility floor for (user, mentor).
// mentorID 0 applies the gap across all mentors the user has booked.
func (s *EligibilityService) EarliestStart(ctx context.Context, userID, mentorID int64, now time.Time) (time.Time, error) {
	lastEnd, found, err := s.bookings.LastConfirmedEnd(ctx, userID, mentorID, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("get last confirmed end: %w", err)
	}

	if !found {
		return now, nil
	}

	earliest := lastEnd.AddDate(0, 0, s.gapDays)
	if earliest.Before(now) {
		return now, nil
	}

	s.logger.Debug("Gap policy applied",
		zap.Int64("user_id", userID),
		zap.Int64("mentor_id", mentorID),
		zap.Time("last_session_end", lastEnd),
		zap.Time("earliest_next", earliest),
	)

	return earliest, nil
}
