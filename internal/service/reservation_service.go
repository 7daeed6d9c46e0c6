package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ReserveRequest описывает запрос пользователя на бронирование слота
type ReserveRequest struct {
	SlotID    int64
	UserID    int64
	UserEmail string
	MentorID  int64
	Notes     string
	// Reassign books the mentor's next free slot instead of failing when
	// the target slot is already taken.
	Reassign bool
}

// ReserveResult is a committed reservation plus any collaborator
// degradation that happened after the commit.
type ReserveResult struct {
	Booking    *model.Booking
	Slot       *model.TimeSlot
	Reassigned bool
	Warnings   []string
}

// ReservationService commits reservations: at most one success per slot
// under arbitrary concurrent callers. Transient storage conflicts are
// retried with linear backoff up to a fixed ceiling; everything after the
// commit is best-effort and can only degrade the result, never fail it.
type ReservationService struct {
	bookings    BookingStore
	mentors     MentorDirectory
	eligibility *EligibilityService
	search      *SearchService
	producer    EventProducer
	calendar    Calendar
	eventsTopic string
	granularity time.Duration
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

func NewReservationService(
	bookings BookingStore,
	mentors MentorDirectory,
	eligibility *EligibilityService,
	search *SearchService,
	producer EventProducer,
	cal Calendar,
	eventsTopic string,
	granularity time.Duration,
	maxRetries int,
	backoff time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		bookings:    bookings,
		mentors:     mentors,
		eligibility: eligibility,
		search:      search,
		producer:    producer,
		calendar:    cal,
		eventsTopic: eventsTopic,
		granularity: granularity,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
	}
}

// Reserve бронирует слот для пользователя
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	if err := validateReserveRequest(req); err != nil {
		return nil, err
	}

	mentor, err := s.mentors.GetByID(ctx, req.MentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, model.ErrNotFound
	}
	if !mentor.IsActive {
		return nil, model.NewValidationError("mentor_id", "mentor is not active")
	}

	now := time.Now()
	floor, err := s.eligibility.EarliestStart(ctx, req.UserID, req.MentorID, now)
	if err != nil {
		return nil, err
	}

	params := repository.ReserveParams{
		SlotID:      req.SlotID,
		UserID:      req.UserID,
		UserEmail:   req.UserEmail,
		MentorID:    req.MentorID,
		Notes:       req.Notes,
		Attendees:   []string{req.UserEmail, mentor.Email},
		Granularity: s.granularity,
		Now:         now,
		NotBefore:   floor,
	}

	reassigned := false
	booking, err := s.reserveWithRetry(ctx, params)
	if errors.Is(err, model.ErrSlotUnavailable) && req.Reassign {
		// Слот потерян - пробуем следующий свободный слот ментора
		next, searchErr := s.search.NextFreeSlot(ctx, req.MentorID, floor)
		if searchErr != nil {
			return nil, err
		}

		s.logger.Info("Target slot taken, reassigning",
			zap.Int64("requested_slot_id", req.SlotID),
			zap.Int64("next_slot_id", next.ID),
		)

		params.SlotID = next.ID
		booking, err = s.reserveWithRetry(ctx, params)
		reassigned = err == nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot reserved",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("user_id", req.UserID),
		zap.Int64("slot_id", params.SlotID),
		zap.Bool("reassigned", reassigned),
	)

	result := &ReserveResult{
		Booking:    booking,
		Reassigned: reassigned,
	}
	if len(booking.Slots) > 0 {
		result.Slot = booking.Slots[0]
	}

	// Побочные эффекты строго после коммита
	result.Warnings = s.afterCommit(ctx, booking, mentor, kafka.EventBookingConfirmed)

	return result, nil
}

// reserveWithRetry retries the locked transaction on transient conflicts
// only; a lost race or validation failure surfaces immediately.
func (s *ReservationService) reserveWithRetry(ctx context.Context, params repository.ReserveParams) (*model.Booking, error) {
	var booking *model.Booking

	err := retryTransient(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		b, err := s.bookings.Reserve(ctx, params)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if base.IsTransientConflict(err) {
			return nil, fmt.Errorf("%w: reservation contention on slot %d", model.ErrSystemBusy, params.SlotID)
		}
		return nil, err
	}

	return booking, nil
}

// afterCommit runs the non-transactional side effects of a committed
// reservation: event publication and calendar event creation. Failures
// become warnings, never errors.
func (s *ReservationService) afterCommit(ctx context.Context, booking *model.Booking, mentor *model.Mentor, eventType string) []string {
	warnings := createCalendarEvent(ctx, s.calendar, s.bookings, s.logger, booking, mentor)

	if err := s.publish(ctx, booking, mentor, eventType); err != nil {
		s.logger.Warn("Booking event publish failed",
			zap.Error(err),
			zap.Int64("booking_id", booking.ID),
		)
		warnings = append(warnings, "notification event was not published")
	}

	return warnings
}

// createCalendarEvent creates the external calendar event for a committed
// booking and persists its references. Shared between reserve and
// reschedule paths.
func createCalendarEvent(ctx context.Context, cal Calendar, bookings BookingStore, logger *zap.Logger, booking *model.Booking, mentor *model.Mentor) []string {
	event := calendar.EventRequest{
		CalendarID: mentor.Email,
		Summary:    fmt.Sprintf("Mentorship Session: %s & %s", booking.UserEmail, mentor.DisplayName),
		Description: fmt.Sprintf("%d-minute mentorship session with %s",
			int(booking.EndTime.Sub(booking.StartTime).Minutes()), mentor.DisplayName),
		Start:     booking.StartTime,
		End:       booking.EndTime,
		Attendees: booking.Attendees,
	}

	created, err := cal.CreateEvent(ctx, event)
	if err != nil {
		logger.Warn("Calendar event creation failed",
			zap.Error(err),
			zap.Int64("booking_id", booking.ID),
		)
		return []string{"calendar event was not created"}
	}

	booking.EventID = created.EventID
	booking.CalendarLink = created.CalendarLink
	booking.MeetLink = created.MeetLink
	if booking.MeetLink == "" {
		booking.MeetLink = mentor.MeetLink
	}

	if err := bookings.UpdateCalendarInfo(ctx, booking.ID, booking.EventID, booking.MeetLink, booking.CalendarLink); err != nil {
		logger.Warn("Failed to persist calendar info", zap.Error(err), zap.Int64("booking_id", booking.ID))
		return []string{"calendar references were not persisted"}
	}

	return nil
}

func (s *ReservationService) publish(ctx context.Context, booking *model.Booking, mentor *model.Mentor, eventType string) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}

	event := kafka.BookingEvent{
		Type:       eventType,
		Reference:  booking.Reference.String(),
		BookingID:  booking.ID,
		UserEmail:  booking.UserEmail,
		MentorID:   mentor.ID,
		MentorName: mentor.DisplayName,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		MeetLink:   booking.MeetLink,
		Status:     string(booking.Status),
		Attendees:  booking.Attendees,
	}

	return s.producer.Publish(ctx, s.eventsTopic, booking.Reference.String(), event)
}

func validateReserveRequest(req ReserveRequest) error {
	if req.SlotID <= 0 {
		return model.NewValidationError("slot_id", "must be positive")
	}
	if req.UserID <= 0 {
		return model.NewValidationError("user_id", "must be positive")
	}
	if req.MentorID <= 0 {
		return model.NewValidationError("mentor_id", "must be positive")
	}
	if !emailPattern.MatchString(req.UserEmail) {
		return model.NewValidationError("user_email", "invalid email address")
	}
	return nil
}
