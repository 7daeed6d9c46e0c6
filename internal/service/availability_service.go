package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"go.uber.org/zap"
)

// AvailabilityService materializes bookable slots from mentors' weekly
// templates. Generation is idempotent: the (mentor, date, start) uniqueness
// constraint absorbs re-runs and booked slots are never touched.
type AvailabilityService struct {
	mentors     MentorDirectory
	templates   AvailabilityStore
	blocked     BlockedDateStore
	slots       SlotStore
	granularity time.Duration
	logger      *zap.Logger
}

func NewAvailabilityService(
	mentors MentorDirectory,
	templates AvailabilityStore,
	blocked BlockedDateStore,
	slots SlotStore,
	granularity time.Duration,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		mentors:     mentors,
		templates:   templates,
		blocked:     blocked,
		slots:       slots,
		granularity: granularity,
		logger:      logger,
	}
}

// GenerateForMentor создаёт слоты ментора в диапазоне дат
func (s *AvailabilityService) GenerateForMentor(ctx context.Context, mentorID int64, from, to time.Time) (int, error) {
	mentor, err := s.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return 0, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return 0, model.ErrNotFound
	}

	slots, err := s.buildSlots(ctx, mentor, from, to, time.Now())
	if err != nil {
		return 0, err
	}

	created, err := s.slots.CreateBatch(ctx, slots)
	if err != nil {
		return created, fmt.Errorf("create slots: %w", err)
	}

	s.logger.Info("Slots generated",
		zap.Int64("mentor_id", mentorID),
		zap.Int("candidates", len(slots)),
		zap.Int("created", created),
	)

	return created, nil
}

// Recreate deletes unbooked slots in range and regenerates. Booked slots
// survive untouched.
func (s *AvailabilityService) Recreate(ctx context.Context, mentorID int64, from, to time.Time) (int, error) {
	deleted, err := s.slots.DeleteUnbooked(ctx, mentorID, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete unbooked slots: %w", err)
	}

	created, err := s.GenerateForMentor(ctx, mentorID, from, to)
	if err != nil {
		return created, err
	}

	s.logger.Info("Slots recreated",
		zap.Int64("mentor_id", mentorID),
		zap.Int64("deleted", deleted),
		zap.Int("created", created),
	)

	return created, nil
}

// GenerateAll генерирует слоты для всех активных менторов
// Эта функция вызывается периодически (например, раз в день)
func (s *AvailabilityService) GenerateAll(ctx context.Context, weeksAhead int) error {
	mentors, err := s.mentors.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("get active mentors: %w", err)
	}

	now := time.Now()
	to := now.AddDate(0, 0, weeksAhead*7)

	totalCount := 0
	for _, mentor := range mentors {
		count, err := s.GenerateForMentor(ctx, mentor.ID, now, to)
		if err != nil {
			s.logger.Error("Failed to generate slots for mentor",
				zap.Error(err),
				zap.Int64("mentor_id", mentor.ID),
			)
			continue
		}
		totalCount += count
	}

	s.logger.Info("Generated slots for all mentors",
		zap.Int("total_mentors", len(mentors)),
		zap.Int("total_slots_created", totalCount),
	)

	return nil
}

// buildSlots expands the weekly template into granularity-sized candidates
// on every non-blocked date in [from, to], skipping instants already past
// in the mentor's timezone.
func (s *AvailabilityService) buildSlots(ctx context.Context, mentor *model.Mentor, from, to time.Time, now time.Time) ([]*model.TimeSlot, error) {
	templates, err := s.templates.GetActiveByMentorID(ctx, mentor.ID)
	if err != nil {
		return nil, fmt.Errorf("get weekly availabilities: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	loc := mentor.Location()

	blocked, err := s.blocked.GetByMentorID(ctx, mentor.ID, dateOnly(from.In(loc)), dateOnly(to.In(loc)))
	if err != nil {
		return nil, fmt.Errorf("get blocked dates: %w", err)
	}
	blockedSet := make(map[string]struct{}, len(blocked))
	for _, b := range blocked {
		blockedSet[b.Date.Format("2006-01-02")] = struct{}{}
	}

	byWeekday := make(map[int][]*model.WeeklyAvailability)
	for _, t := range templates {
		byWeekday[t.Weekday] = append(byWeekday[t.Weekday], t)
	}

	var slots []*model.TimeSlot
	for day := dateOnly(from.In(loc)); !day.After(dateOnly(to.In(loc))); day = day.AddDate(0, 0, 1) {
		if _, ok := blockedSet[day.Format("2006-01-02")]; ok {
			continue
		}

		for _, tpl := range byWeekday[int(day.Weekday())] {
			intervalEnd := tpl.EndOn(day, loc)
			for start := tpl.StartOn(day, loc); !start.Add(s.granularity).After(intervalEnd); start = start.Add(s.granularity) {
				// Не создаём слоты в прошлом
				if !start.After(now) {
					continue
				}

				slots = append(slots, &model.TimeSlot{
					MentorID:    mentor.ID,
					Date:        time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
					StartTime:   start,
					EndTime:     start.Add(s.granularity),
					IsAvailable: true,
				})
			}
		}
	}

	return slots, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
