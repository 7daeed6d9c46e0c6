package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"go.uber.org/zap"
)

// SearchService scans the generated slot lattice for bookable slots.
// Searches run unlocked and may see a slot as free moments before it is
// taken; the reservation transaction re-validates under the lock.
type SearchService struct {
	slots        SlotStore
	mentors      MentorDirectory
	eligibility  *EligibilityService
	busy         *BusyService
	granularity  time.Duration
	lookahead    int // days, earliest-match mode
	dayLookahead int // days, day-filtered mode
	dayStartHour int // fallback slot start
	logger       *zap.Logger
}

func NewSearchService(
	slots SlotStore,
	mentors MentorDirectory,
	eligibility *EligibilityService,
	busy *BusyService,
	granularity time.Duration,
	lookahead, dayLookahead, dayStartHour int,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		slots:        slots,
		mentors:      mentors,
		eligibility:  eligibility,
		busy:         busy,
		granularity:  granularity,
		lookahead:    lookahead,
		dayLookahead: dayLookahead,
		dayStartHour: dayStartHour,
		logger:       logger,
	}
}

// EarliestSlot returns the first free, gap-compliant, externally-free slot
// for the mentor in ascending (date, start) order. When nothing is free
// within the lookahead it returns a synthesized fallback slot rather than
// an error.
func (s *SearchService) EarliestSlot(ctx context.Context, userID, mentorID int64) (*model.TimeSlot, error) {
	mentor, err := s.mentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	floor, err := s.eligibility.EarliestStart(ctx, userID, mentorID, now)
	if err != nil {
		return nil, err
	}

	to := floor.AddDate(0, 0, s.lookahead)
	candidates, err := s.slots.GetFreeByMentor(ctx, mentorID, floor, to)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}

	busy := s.busy.BusyIntervals(ctx, mentor, floor, to)

	for _, slot := range candidates {
		if Overlaps(slot.StartTime, slot.EndTime, busy) {
			continue
		}
		return slot, nil
	}

	s.logger.Info("No free slot within lookahead, using fallback",
		zap.Int64("mentor_id", mentorID),
		zap.Int("lookahead_days", s.lookahead),
	)

	return s.fallbackSlot(mentor, now), nil
}

// SlotsForDay returns every free, eligible slot on the next occurrences of
// the named weekday within the day lookahead, sorted ascending. An empty
// result is a defined outcome, not an error.
func (s *SearchService) SlotsForDay(ctx context.Context, userID, mentorID int64, weekday string) ([]*model.TimeSlot, error) {
	target, err := parseWeekday(weekday)
	if err != nil {
		return nil, err
	}

	mentor, err := s.mentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	floor, err := s.eligibility.EarliestStart(ctx, userID, mentorID, now)
	if err != nil {
		return nil, err
	}

	to := floor.AddDate(0, 0, s.dayLookahead)
	candidates, err := s.slots.GetFreeByMentor(ctx, mentorID, floor, to)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}

	loc := mentor.Location()
	var matched []*model.TimeSlot
	for _, slot := range candidates {
		if slot.StartTime.In(loc).Weekday() == target {
			matched = append(matched, slot)
		}
	}

	busy := s.busy.BusyIntervals(ctx, mentor, floor, to)
	return FilterFree(matched, busy), nil
}

// NextFreeSlot finds the mentor's first free slot strictly after the given
// instant. Used by reservation auto-reassignment; no gap policy applied.
func (s *SearchService) NextFreeSlot(ctx context.Context, mentorID int64, after time.Time) (*model.TimeSlot, error) {
	mentor, err := s.mentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	to := after.AddDate(0, 0, s.lookahead)
	candidates, err := s.slots.GetFreeByMentor(ctx, mentorID, after, to)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}

	busy := s.busy.BusyIntervals(ctx, mentor, after, to)
	for _, slot := range candidates {
		if slot.StartTime.After(after) && !Overlaps(slot.StartTime, slot.EndTime, busy) {
			return slot, nil
		}
	}

	return nil, model.ErrSlotUnavailable
}

func (s *SearchService) mentor(ctx context.Context, mentorID int64) (*model.Mentor, error) {
	mentor, err := s.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, model.ErrNotFound
	}
	if !mentor.IsActive {
		return nil, model.NewValidationError("mentor_id", "mentor is not active")
	}
	return mentor, nil
}

// fallbackSlot synthesizes a next-Monday-morning slot in the mentor's
// timezone. It is not a stored row (ID 0, Fallback true).
func (s *SearchService) fallbackSlot(mentor *model.Mentor, now time.Time) *model.TimeSlot {
	loc := mentor.Location()
	local := now.In(loc)

	daysAhead := (int(time.Monday) - int(local.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}

	day := local.AddDate(0, 0, daysAhead)
	start := time.Date(day.Year(), day.Month(), day.Day(), s.dayStartHour, 0, 0, 0, loc)

	return &model.TimeSlot{
		MentorID:    mentor.ID,
		Date:        time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:   start,
		EndTime:     start.Add(s.granularity),
		IsAvailable: true,
		Fallback:    true,
	}
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, model.NewValidationError("weekday", fmt.Sprintf("unknown weekday %q", name))
}
