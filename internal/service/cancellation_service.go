package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// CancelResult is a committed cancellation or reschedule plus any
// post-commit collaborator degradation.
type CancelResult struct {
	Booking  *model.Booking
	Warnings []string
}

// CancellationService tears reservations down and moves them: the storage
// transaction releases or swaps slots atomically, then calendar cleanup and
// event publication run best-effort after the commit.
type CancellationService struct {
	bookings    BookingStore
	mentors     MentorDirectory
	producer    EventProducer
	calendar    Calendar
	eventsTopic string
	granularity time.Duration
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

func NewCancellationService(
	bookings BookingStore,
	mentors MentorDirectory,
	producer EventProducer,
	cal Calendar,
	eventsTopic string,
	granularity time.Duration,
	maxRetries int,
	backoff time.Duration,
	logger *zap.Logger,
) *CancellationService {
	return &CancellationService{
		bookings:    bookings,
		mentors:     mentors,
		producer:    producer,
		calendar:    cal,
		eventsTopic: eventsTopic,
		granularity: granularity,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
	}
}

// Cancel отменяет бронирование и освобождает его слоты
func (s *CancellationService) Cancel(ctx context.Context, bookingID int64, reason string) (*CancelResult, error) {
	if bookingID <= 0 {
		return nil, model.NewValidationError("booking_id", "must be positive")
	}

	var booking *model.Booking
	err := retryTransient(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		b, err := s.bookings.Cancel(ctx, bookingID, reason)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if base.IsTransientConflict(err) {
			return nil, fmt.Errorf("%w: cancellation contention on booking %d", model.ErrSystemBusy, bookingID)
		}
		return nil, err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", booking.ID),
		zap.String("reason", reason),
	)

	result := &CancelResult{Booking: booking}
	result.Warnings = s.cleanupCalendar(ctx, booking)

	if err := s.publish(ctx, booking, kafka.EventBookingCancelled); err != nil {
		s.logger.Warn("Cancellation event publish failed", zap.Error(err), zap.Int64("booking_id", booking.ID))
		result.Warnings = append(result.Warnings, "notification event was not published")
	}

	return result, nil
}

// Reschedule переносит подтверждённое бронирование на новый слот
func (s *CancellationService) Reschedule(ctx context.Context, bookingID, newSlotID int64) (*CancelResult, error) {
	if bookingID <= 0 {
		return nil, model.NewValidationError("booking_id", "must be positive")
	}
	if newSlotID <= 0 {
		return nil, model.NewValidationError("new_slot_id", "must be positive")
	}

	previous, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if previous == nil {
		return nil, model.ErrNotFound
	}
	previousEventID := previous.EventID

	params := repository.RescheduleParams{
		BookingID:   bookingID,
		NewSlotID:   newSlotID,
		Granularity: s.granularity,
		Now:         time.Now(),
	}

	var booking *model.Booking
	err = retryTransient(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		b, err := s.bookings.Reschedule(ctx, params)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if base.IsTransientConflict(err) {
			return nil, fmt.Errorf("%w: reschedule contention on booking %d", model.ErrSystemBusy, bookingID)
		}
		return nil, err
	}

	s.logger.Info("Booking rescheduled",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("new_slot_id", newSlotID),
		zap.Time("start_time", booking.StartTime),
	)

	result := &CancelResult{Booking: booking}

	// Старое событие календаря больше не актуально
	if previousEventID != "" {
		if _, err := s.calendar.DeleteEvent(ctx, s.calendarID(ctx, booking), previousEventID); err != nil {
			s.logger.Warn("Failed to delete stale calendar event",
				zap.Error(err),
				zap.String("event_id", previousEventID),
			)
			result.Warnings = append(result.Warnings, "stale calendar event was not removed")
		}
	}

	result.Warnings = append(result.Warnings, s.recreateCalendar(ctx, booking)...)

	if err := s.publish(ctx, booking, kafka.EventBookingRescheduled); err != nil {
		s.logger.Warn("Reschedule event publish failed", zap.Error(err), zap.Int64("booking_id", booking.ID))
		result.Warnings = append(result.Warnings, "notification event was not published")
	}

	return result, nil
}

func (s *CancellationService) cleanupCalendar(ctx context.Context, booking *model.Booking) []string {
	if booking.EventID == "" {
		return nil
	}

	gone, err := s.calendar.DeleteEvent(ctx, s.calendarID(ctx, booking), booking.EventID)
	if err != nil {
		s.logger.Warn("Calendar event deletion failed",
			zap.Error(err),
			zap.String("event_id", booking.EventID),
			zap.Int64("booking_id", booking.ID),
		)
		return []string{"calendar event was not removed"}
	}
	if gone {
		s.logger.Debug("Calendar event removed", zap.String("event_id", booking.EventID))
	}
	return nil
}

func (s *CancellationService) recreateCalendar(ctx context.Context, booking *model.Booking) []string {
	mentor, err := s.mentors.GetByID(ctx, booking.MentorID)
	if err != nil || mentor == nil {
		s.logger.Warn("Mentor lookup failed after reschedule", zap.Error(err), zap.Int64("mentor_id", booking.MentorID))
		return []string{"calendar event was not recreated"}
	}

	// Обновлённое событие с новым временем
	return createCalendarEvent(ctx, s.calendar, s.bookings, s.logger, booking, mentor)
}

func (s *CancellationService) publish(ctx context.Context, booking *model.Booking, eventType string) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}

	mentorName := ""
	if mentor, err := s.mentors.GetByID(ctx, booking.MentorID); err == nil && mentor != nil {
		mentorName = mentor.DisplayName
	}

	event := kafka.BookingEvent{
		Type:       eventType,
		Reference:  booking.Reference.String(),
		BookingID:  booking.ID,
		UserEmail:  booking.UserEmail,
		MentorID:   booking.MentorID,
		MentorName: mentorName,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		MeetLink:   booking.MeetLink,
		Status:     string(booking.Status),
		Attendees:  booking.Attendees,
	}

	return s.producer.Publish(ctx, s.eventsTopic, booking.Reference.String(), event)
}

func (s *CancellationService) calendarID(ctx context.Context, booking *model.Booking) string {
	if mentor, err := s.mentors.GetByID(ctx, booking.MentorID); err == nil && mentor != nil {
		return mentor.Email
	}
	return "primary"
}

// retryTransient повторяет fn с линейной задержкой step * attempt,
// только для временных конфликтов хранилища.
func retryTransient(ctx context.Context, maxRetries int, step time.Duration, fn func(context.Context) error) error {
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * step, false
	}))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if base.IsTransientConflict(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
