package service

import (
	"context"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/cache"
	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository"
)

// Интерфейсы хранилищ объявлены на стороне потребителя для тестирования

type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	CreateBatch(ctx context.Context, slots []*model.TimeSlot) (int, error)
	GetFreeByMentor(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.TimeSlot, error)
	GetByBookingID(ctx context.Context, bookingID int64) ([]*model.TimeSlot, error)
	DeleteUnbooked(ctx context.Context, mentorID int64, from, to time.Time) (int64, error)
}

type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	LastConfirmedEnd(ctx context.Context, userID, mentorID int64, now time.Time) (time.Time, bool, error)
	Reserve(ctx context.Context, p repository.ReserveParams) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID int64, reason string) (*model.Booking, error)
	Reschedule(ctx context.Context, p repository.RescheduleParams) (*model.Booking, error)
	UpdateCalendarInfo(ctx context.Context, bookingID int64, eventID, meetLink, calendarLink string) error
	CompleteElapsed(ctx context.Context, now time.Time) ([]*model.Booking, error)
}

// MentorDirectory resolves mentor identity, timezone and calendar identity.
// Read-only from the engine's perspective.
type MentorDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.Mentor, error)
	GetAllActive(ctx context.Context) ([]*model.Mentor, error)
}

type AvailabilityStore interface {
	GetActiveByMentorID(ctx context.Context, mentorID int64) ([]*model.WeeklyAvailability, error)
}

type BlockedDateStore interface {
	GetByMentorID(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.BlockedDate, error)
}

// Calendar is the external calendar collaborator. Best-effort: failures are
// downgraded by callers, never escalated into transaction failures.
type Calendar interface {
	ListBusy(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.BusyInterval, error)
	CreateEvent(ctx context.Context, req calendar.EventRequest) (*calendar.EventResult, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) (bool, error)
}

// BusyCache is a short-TTL cache of external busy intervals.
type BusyCache interface {
	GetBusy(ctx context.Context, key string) ([]calendar.BusyInterval, bool, error)
	SetBusy(ctx context.Context, key string, intervals []calendar.BusyInterval) error
}

// EventProducer publishes booking events strictly after a transaction commit.
type EventProducer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

var (
	_ SlotStore         = (*repository.SlotRepository)(nil)
	_ BookingStore      = (*repository.BookingRepository)(nil)
	_ MentorDirectory   = (*repository.MentorRepository)(nil)
	_ AvailabilityStore = (*repository.AvailabilityRepository)(nil)
	_ BlockedDateStore  = (*repository.BlockedDateRepository)(nil)
	_ Calendar          = (*calendar.Client)(nil)
	_ BusyCache         = (*cache.BusyCache)(nil)
	_ EventProducer     = (*kafka.Producer)(nil)
)
