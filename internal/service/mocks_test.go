package service

import (
	"context"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock структуры для интерфейсов хранилищ

type MockSlotStore struct {
	mock.Mock
}

func (m *MockSlotStore) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeSlot), args.Error(1)
}

func (m *MockSlotStore) CreateBatch(ctx context.Context, slots []*model.TimeSlot) (int, error) {
	args := m.Called(ctx, slots)
	return args.Int(0), args.Error(1)
}

func (m *MockSlotStore) GetFreeByMentor(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	args := m.Called(ctx, mentorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TimeSlot), args.Error(1)
}

func (m *MockSlotStore) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.TimeSlot, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TimeSlot), args.Error(1)
}

func (m *MockSlotStore) DeleteUnbooked(ctx context.Context, mentorID int64, from, to time.Time) (int64, error) {
	args := m.Called(ctx, mentorID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) LastConfirmedEnd(ctx context.Context, userID, mentorID int64, now time.Time) (time.Time, bool, error) {
	args := m.Called(ctx, userID, mentorID, now)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockBookingStore) Reserve(ctx context.Context, p repository.ReserveParams) (*model.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) Cancel(ctx context.Context, bookingID int64, reason string) (*model.Booking, error) {
	args := m.Called(ctx, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) Reschedule(ctx context.Context, p repository.RescheduleParams) (*model.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) UpdateCalendarInfo(ctx context.Context, bookingID int64, eventID, meetLink, calendarLink string) error {
	args := m.Called(ctx, bookingID, eventID, meetLink, calendarLink)
	return args.Error(0)
}

func (m *MockBookingStore) CompleteElapsed(ctx context.Context, now time.Time) ([]*model.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

type MockMentorDirectory struct {
	mock.Mock
}

func (m *MockMentorDirectory) GetByID(ctx context.Context, id int64) (*model.Mentor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mentor), args.Error(1)
}

func (m *MockMentorDirectory) GetAllActive(ctx context.Context) ([]*model.Mentor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Mentor), args.Error(1)
}

type MockAvailabilityStore struct {
	mock.Mock
}

func (m *MockAvailabilityStore) GetActiveByMentorID(ctx context.Context, mentorID int64) ([]*model.WeeklyAvailability, error) {
	args := m.Called(ctx, mentorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WeeklyAvailability), args.Error(1)
}

type MockBlockedDateStore struct {
	mock.Mock
}

func (m *MockBlockedDateStore) GetByMentorID(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.BlockedDate, error) {
	args := m.Called(ctx, mentorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BlockedDate), args.Error(1)
}

type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) ListBusy(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.BusyInterval, error) {
	args := m.Called(ctx, calendarID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.BusyInterval), args.Error(1)
}

func (m *MockCalendar) CreateEvent(ctx context.Context, req calendar.EventRequest) (*calendar.EventResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.EventResult), args.Error(1)
}

func (m *MockCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) (bool, error) {
	args := m.Called(ctx, calendarID, eventID)
	return args.Bool(0), args.Error(1)
}

type MockBusyCache struct {
	mock.Mock
}

func (m *MockBusyCache) GetBusy(ctx context.Context, key string) ([]calendar.BusyInterval, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]calendar.BusyInterval), args.Bool(1), args.Error(2)
}

func (m *MockBusyCache) SetBusy(ctx context.Context, key string, intervals []calendar.BusyInterval) error {
	args := m.Called(ctx, key, intervals)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
