package service

import (
	"context"
	"testing"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type reservationFixture struct {
	svc      *ReservationService
	bookings *MockBookingStore
	mentors  *MockMentorDirectory
	slots    *MockSlotStore
	calendar *MockCalendar
	producer *MockProducer
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()

	f := &reservationFixture{
		bookings: &MockBookingStore{},
		mentors:  &MockMentorDirectory{},
		slots:    &MockSlotStore{},
		calendar: &MockCalendar{},
		producer: &MockProducer{},
	}

	eligibility := NewEligibilityService(f.bookings, 7, zap.NewNop())
	busy := NewBusyService(f.calendar, nil, zap.NewNop())
	search := NewSearchService(f.slots, f.mentors, eligibility, busy, 15*time.Minute, 30, 14, 9, zap.NewNop())

	f.svc = NewReservationService(
		f.bookings, f.mentors, eligibility, search,
		f.producer, f.calendar, "booking-events",
		15*time.Minute, 2, time.Millisecond, zap.NewNop())

	return f
}

func activeMentor() *model.Mentor {
	return &model.Mentor{ID: 7, DisplayName: "Jordan", Email: "mentor@example.com", IsActive: true}
}

func confirmedBooking(id int64, slot *model.TimeSlot) *model.Booking {
	return &model.Booking{
		ID:        id,
		UserID:    42,
		UserEmail: "user@example.com",
		MentorID:  7,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    model.BookingStatusConfirmed,
		Attendees: []string{"user@example.com", "mentor@example.com"},
		Slots:     []*model.TimeSlot{slot},
	}
}

func validRequest() ReserveRequest {
	return ReserveRequest{
		SlotID:    11,
		UserID:    42,
		UserEmail: "user@example.com",
		MentorID:  7,
	}
}

func TestReservationService_Reserve_Success(t *testing.T) {
	f := newReservationFixture(t)

	slot := futureSlot(11, 7, time.Now().Add(48*time.Hour))
	booking := confirmedBooking(100, slot)

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil).Once()
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()

	var captured repository.ReserveParams
	f.bookings.On("Reserve", mock.Anything, mock.AnythingOfType("repository.ReserveParams")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(repository.ReserveParams)
		}).
		Return(booking, nil).Once()

	f.calendar.On("CreateEvent", mock.Anything, mock.AnythingOfType("calendar.EventRequest")).
		Return(&calendar.EventResult{EventID: "ev-1", CalendarLink: "https://cal/ev-1", MeetLink: "https://meet/x"}, nil).Once()
	f.bookings.On("UpdateCalendarInfo", mock.Anything, int64(100), "ev-1", "https://meet/x", "https://cal/ev-1").
		Return(nil).Once()
	f.producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).
		Return(nil).Once()

	result, err := f.svc.Reserve(context.Background(), validRequest())

	assert.NoError(t, err)
	assert.False(t, result.Reassigned)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, model.BookingStatusConfirmed, result.Booking.Status)
	assert.Equal(t, "ev-1", result.Booking.EventID)

	// Параметры транзакции собраны из запроса и политики
	assert.Equal(t, int64(11), captured.SlotID)
	assert.Equal(t, 15*time.Minute, captured.Granularity)
	assert.Equal(t, []string{"user@example.com", "mentor@example.com"}, captured.Attendees)
	assert.False(t, captured.NotBefore.IsZero())

	f.bookings.AssertExpectations(t)
	f.calendar.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestReservationService_Reserve_InvalidInput(t *testing.T) {
	f := newReservationFixture(t)

	testCases := []struct {
		name string
		mut  func(*ReserveRequest)
	}{
		{"zero slot id", func(r *ReserveRequest) { r.SlotID = 0 }},
		{"negative user id", func(r *ReserveRequest) { r.UserID = -1 }},
		{"zero mentor id", func(r *ReserveRequest) { r.MentorID = 0 }},
		{"malformed email", func(r *ReserveRequest) { r.UserEmail = "not-an-email" }},
		{"empty email", func(r *ReserveRequest) { r.UserEmail = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mut(&req)

			result, err := f.svc.Reserve(context.Background(), req)

			assert.Nil(t, result)
			assert.True(t, model.IsValidation(err))
		})
	}

	f.bookings.AssertNotCalled(t, "Reserve")
}

func TestReservationService_Reserve_SlotTaken(t *testing.T) {
	f := newReservationFixture(t)

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil).Once()
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()
	f.bookings.On("Reserve", mock.Anything, mock.Anything).
		Return(nil, model.ErrSlotUnavailable).Once()

	result, err := f.svc.Reserve(context.Background(), validRequest())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
	f.calendar.AssertNotCalled(t, "CreateEvent")
	f.producer.AssertNotCalled(t, "Publish")
}

// Проигранная гонка с включённым Reassign бронирует следующий свободный слот
func TestReservationService_Reserve_Reassign(t *testing.T) {
	f := newReservationFixture(t)

	next := futureSlot(12, 7, time.Now().Add(72*time.Hour))
	booking := confirmedBooking(101, next)

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil)
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()

	f.bookings.On("Reserve", mock.Anything, mock.MatchedBy(func(p repository.ReserveParams) bool {
		return p.SlotID == 11
	})).Return(nil, model.ErrSlotUnavailable).Once()

	// Поиск следующего свободного слота
	f.slots.On("GetFreeByMentor", mock.Anything, int64(7), mock.Anything, mock.Anything).
		Return([]*model.TimeSlot{next}, nil).Once()
	f.calendar.On("ListBusy", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]calendar.BusyInterval{}, nil).Once()

	f.bookings.On("Reserve", mock.Anything, mock.MatchedBy(func(p repository.ReserveParams) bool {
		return p.SlotID == 12
	})).Return(booking, nil).Once()

	f.calendar.On("CreateEvent", mock.Anything, mock.Anything).
		Return(&calendar.EventResult{EventID: "ev-2"}, nil).Once()
	f.bookings.On("UpdateCalendarInfo", mock.Anything, int64(101), mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	f.producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).
		Return(nil).Once()

	req := validRequest()
	req.Reassign = true

	result, err := f.svc.Reserve(context.Background(), req)

	assert.NoError(t, err)
	assert.True(t, result.Reassigned)
	assert.Equal(t, int64(101), result.Booking.ID)
	f.bookings.AssertExpectations(t)
}

// Временный конфликт блокировок повторяется и завершается успехом
func TestReservationService_Reserve_TransientConflictRetried(t *testing.T) {
	f := newReservationFixture(t)

	slot := futureSlot(11, 7, time.Now().Add(48*time.Hour))
	booking := confirmedBooking(100, slot)
	lockErr := &pgconn.PgError{Code: "55P03"}

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil).Once()
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()

	f.bookings.On("Reserve", mock.Anything, mock.Anything).Return(nil, lockErr).Twice()
	f.bookings.On("Reserve", mock.Anything, mock.Anything).Return(booking, nil).Once()

	f.calendar.On("CreateEvent", mock.Anything, mock.Anything).
		Return(&calendar.EventResult{EventID: "ev-1"}, nil).Once()
	f.bookings.On("UpdateCalendarInfo", mock.Anything, int64(100), mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	result, err := f.svc.Reserve(context.Background(), validRequest())

	assert.NoError(t, err)
	assert.Equal(t, int64(100), result.Booking.ID)
	f.bookings.AssertExpectations(t)
}

// Исчерпание повторов даёт ErrSystemBusy, а не голую ошибку блокировки
func TestReservationService_Reserve_RetriesExhausted(t *testing.T) {
	f := newReservationFixture(t)

	lockErr := &pgconn.PgError{Code: "55P03"}

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil).Once()
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()
	f.bookings.On("Reserve", mock.Anything, mock.Anything).Return(nil, lockErr).Times(3)

	result, err := f.svc.Reserve(context.Background(), validRequest())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrSystemBusy)
	f.bookings.AssertExpectations(t)
}

// Отказ календаря после коммита деградирует до предупреждения
func TestReservationService_Reserve_CalendarFailureIsWarning(t *testing.T) {
	f := newReservationFixture(t)

	slot := futureSlot(11, 7, time.Now().Add(48*time.Hour))
	booking := confirmedBooking(100, slot)

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(activeMentor(), nil).Once()
	f.bookings.On("LastConfirmedEnd", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(time.Time{}, false, nil).Once()
	f.bookings.On("Reserve", mock.Anything, mock.Anything).Return(booking, nil).Once()

	f.calendar.On("CreateEvent", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	result, err := f.svc.Reserve(context.Background(), validRequest())

	assert.NoError(t, err)
	assert.Contains(t, result.Warnings, "calendar event was not created")
	f.bookings.AssertNotCalled(t, "UpdateCalendarInfo")
}

func TestReservationService_Reserve_MentorNotFound(t *testing.T) {
	f := newReservationFixture(t)

	f.mentors.On("GetByID", mock.Anything, int64(7)).Return(nil, nil).Once()

	_, err := f.svc.Reserve(context.Background(), validRequest())

	assert.ErrorIs(t, err, model.ErrNotFound)
}
