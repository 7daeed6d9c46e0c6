package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

const slotColumns = `id, mentor_id, date, start_time, end_time, is_available, is_booked, booking_id, created_at, updated_at`

func scanSlot(row pgx.Row) (*model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(
		&s.ID,
		&s.MentorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.IsAvailable,
		&s.IsBooked,
		&s.BookingID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// CreateBatch inserts generated slots, skipping ones that already exist.
// The (mentor_id, date, start_time) unique constraint makes generation
// idempotent: re-running never duplicates and never touches a booked slot.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []*model.TimeSlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO time_slots (mentor_id, date, start_time, end_time, is_available, is_booked)
		VALUES ($1, $2, $3, $4, $5, false)
		ON CONFLICT (mentor_id, date, start_time) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(query, slot.MentorID, slot.Date, slot.StartTime, slot.EndTime, slot.IsAvailable)
	}

	results := r.Pool().SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return created, fmt.Errorf("insert slot batch: %w", err)
		}
		created += int(tag.RowsAffected())
	}

	return created, nil
}

// GetFreeByMentor получает свободные слоты ментора в диапазоне времени
func (r *SlotRepository) GetFreeByMentor(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE mentor_id = $1
		  AND is_available = true
		  AND is_booked = false
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY date, start_time
	`

	return r.queryMany(ctx, query, mentorID, from, to)
}

// GetByMentor получает все слоты ментора в диапазоне времени
func (r *SlotRepository) GetByMentor(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE mentor_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY date, start_time
	`

	return r.queryMany(ctx, query, mentorID, from, to)
}

// GetByBookingID получает слоты, занятые бронированием
func (r *SlotRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE booking_id = $1
		ORDER BY date, start_time
	`

	return r.queryMany(ctx, query, bookingID)
}

// DeleteUnbooked deletes free slots in range. Booked slots are never deleted;
// used by recreate-mode regeneration.
func (r *SlotRepository) DeleteUnbooked(ctx context.Context, mentorID int64, from, to time.Time) (int64, error) {
	query := `
		DELETE FROM time_slots
		WHERE mentor_id = $1
		  AND is_booked = false
		  AND start_time >= $2
		  AND start_time < $3
	`

	affected, err := r.ExecAffected(ctx, query, mentorID, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete unbooked slots: %w", err)
	}

	return affected, nil
}

// SetAvailability включает или выключает свободный слот
func (r *SlotRepository) SetAvailability(ctx context.Context, slotID int64, available bool) error {
	query := `
		UPDATE time_slots
		SET is_available = $1, updated_at = now()
		WHERE id = $2 AND is_booked = false
	`

	affected, err := r.ExecAffected(ctx, query, available, slotID)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}
	if affected == 0 {
		return model.ErrSlotUnavailable
	}

	return nil
}

func (r *SlotRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*model.TimeSlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}
