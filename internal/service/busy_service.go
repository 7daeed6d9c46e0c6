package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"go.uber.org/zap"
)

// BusyService resolves externally-held busy time for a mentor. An
// unreachable calendar means "no extra information", never a hard failure.
type BusyService struct {
	calendar Calendar
	cache    BusyCache
	logger   *zap.Logger
}

func NewBusyService(cal Calendar, cache BusyCache, logger *zap.Logger) *BusyService {
	return &BusyService{
		calendar: cal,
		cache:    cache,
		logger:   logger,
	}
}

// BusyIntervals получает занятые интервалы ментора в диапазоне
func (s *BusyService) BusyIntervals(ctx context.Context, mentor *model.Mentor, from, to time.Time) []calendar.BusyInterval {
	key := busyKey(mentor.ID, from, to)

	if s.cache != nil {
		intervals, ok, err := s.cache.GetBusy(ctx, key)
		if err != nil {
			s.logger.Warn("Busy cache read failed", zap.Error(err), zap.Int64("mentor_id", mentor.ID))
		} else if ok {
			return intervals
		}
	}

	intervals, err := s.calendar.ListBusy(ctx, mentor.Email, from, to)
	if err != nil {
		// Календарь недоступен - считаем что занятых интервалов нет
		s.logger.Warn("Calendar unavailable, treating as no busy time",
			zap.Error(err),
			zap.Int64("mentor_id", mentor.ID),
		)
		return nil
	}

	if s.cache != nil {
		if err := s.cache.SetBusy(ctx, key, intervals); err != nil {
			s.logger.Warn("Busy cache write failed", zap.Error(err), zap.Int64("mentor_id", mentor.ID))
		}
	}

	return intervals
}

// Overlaps reports whether [start, end) overlaps any busy interval.
// Intervals are half-open: touching endpoints do not overlap.
func Overlaps(start, end time.Time, busy []calendar.BusyInterval) bool {
	for _, b := range busy {
		if end.After(b.Start) && start.Before(b.End) {
			return true
		}
	}
	return false
}

// FilterFree отбрасывает слоты, пересекающиеся с занятыми интервалами
func FilterFree(slots []*model.TimeSlot, busy []calendar.BusyInterval) []*model.TimeSlot {
	if len(busy) == 0 {
		return slots
	}

	free := slots[:0:0]
	for _, slot := range slots {
		if !Overlaps(slot.StartTime, slot.EndTime, busy) {
			free = append(free, slot)
		}
	}
	return free
}

// busyKey buckets the range to whole minutes so lookups made moments apart
// share a cache entry for the TTL's duration.
func busyKey(mentorID int64, from, to time.Time) string {
	return fmt.Sprintf("busy:%d:%d:%d",
		mentorID, from.Truncate(time.Minute).Unix(), to.Truncate(time.Minute).Unix())
}
