package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository owns the booking rows and the two locked transactions
// that mutate slots: reserve and reschedule. All writes to a slot's
// (is_available, is_booked, booking_id) happen inside these transactions
// or inside Cancel.
type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// ReserveParams описывает попытку бронирования одного слота
type ReserveParams struct {
	SlotID      int64
	UserID      int64
	UserEmail   string
	MentorID    int64
	Notes       string
	Attendees   []string
	Granularity time.Duration
	Now         time.Time
	NotBefore   time.Time // eligibility floor; zero disables the gap check
}

// RescheduleParams описывает перенос бронирования на новый слот
type RescheduleParams struct {
	BookingID   int64
	NewSlotID   int64
	Granularity time.Duration
	Now         time.Time
}

const bookingColumns = `id, reference, user_id, user_email, mentor_id, start_time, end_time, status, event_id, meet_link, calendar_link, attendees, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var attendees []byte
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.UserEmail,
		&b.MentorID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.EventID,
		&b.MeetLink,
		&b.CalendarLink,
		&attendees,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &b.Attendees); err != nil {
			return nil, fmt.Errorf("decode attendees: %w", err)
		}
	}
	return &b, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByUserID получает все бронирования пользователя
func (r *BookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by user: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// historyWindow bounds how far back the eligibility scan looks. The gap rule
// is days-scale, so half a year of history is more than enough.
const historyWindow = 180 * 24 * time.Hour

// LastConfirmedEnd returns the latest end time among the user's confirmed
// bookings that ended at or before now. mentorID 0 scans across all mentors.
func (r *BookingRepository) LastConfirmedEnd(ctx context.Context, userID, mentorID int64, now time.Time) (time.Time, bool, error) {
	query := `
		SELECT MAX(end_time)
		FROM bookings
		WHERE user_id = $1
		  AND ($2 = 0 OR mentor_id = $2)
		  AND status = 'confirmed'
		  AND end_time <= $3
		  AND end_time >= $4
	`

	var last *time.Time
	err := r.QueryRow(ctx, query, userID, mentorID, now, now.Add(-historyWindow)).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get last confirmed end: %w", err)
	}
	if last == nil {
		return time.Time{}, false, nil
	}

	return *last, true, nil
}

// Reserve books one slot in a single transaction: exclusive row lock,
// in-lock re-validation, booking insert, slot flip, history row. NOWAIT
// turns lock contention into an immediate transient error that the
// reservation service retries.
func (r *BookingRepository) Reserve(ctx context.Context, p ReserveParams) (*model.Booking, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slot, err := lockSlot(ctx, tx, p.SlotID)
	if err != nil {
		return nil, err
	}

	if err := validateSlotForBooking(slot, p.MentorID, p.Granularity, p.Now); err != nil {
		return nil, err
	}

	// Минимальный интервал между сессиями проверяется и под блокировкой
	if !p.NotBefore.IsZero() && slot.StartTime.Before(p.NotBefore) {
		return nil, model.NewValidationError("slot_id", "slot starts before the user's eligibility window")
	}

	booking, err := insertBooking(ctx, tx, slot, p)
	if err != nil {
		return nil, err
	}

	if err := bookSlot(ctx, tx, slot.ID, booking.ID); err != nil {
		return nil, err
	}

	if err := insertStatusChange(ctx, tx, booking.ID, "", model.BookingStatusConfirmed, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slot.IsBooked = true
	slot.IsAvailable = false
	slot.BookingID = &booking.ID
	booking.Slots = []*model.TimeSlot{slot}

	return booking, nil
}

// Cancel transitions a booking to cancelled and releases every slot it
// holds, all in one transaction.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int64, reason string) (*model.Booking, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	booking, err := lockBooking(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.CanTransition(model.BookingStatusCancelled) {
		return nil, model.NewValidationError("status", fmt.Sprintf("cannot cancel a %s booking", booking.Status))
	}

	prev := booking.Status
	if err := updateBookingStatus(ctx, tx, bookingID, model.BookingStatusCancelled); err != nil {
		return nil, err
	}

	if err := insertStatusChange(ctx, tx, bookingID, prev, model.BookingStatusCancelled, reason); err != nil {
		return nil, err
	}

	// Освобождаем все слоты бронирования
	_, err = tx.Exec(ctx, `
		UPDATE time_slots
		SET is_booked = false, is_available = true, booking_id = NULL, updated_at = now()
		WHERE booking_id = $1
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("release slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	booking.Status = model.BookingStatusCancelled
	return booking, nil
}

// Reschedule atomically moves a booking to a new slot. The old slots and the
// new slot are locked in ascending id order; if anything about the new slot
// fails validation the transaction aborts and the booking keeps its original
// slots untouched.
func (r *BookingRepository) Reschedule(ctx context.Context, p RescheduleParams) (*model.Booking, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	booking, err := lockBooking(ctx, tx, p.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusConfirmed {
		return nil, model.NewValidationError("status", fmt.Sprintf("cannot reschedule a %s booking", booking.Status))
	}

	oldSlotIDs, err := slotIDsForBooking(ctx, tx, p.BookingID)
	if err != nil {
		return nil, err
	}

	// Consistent lock order across concurrent reschedules.
	lockOrder := append([]int64{p.NewSlotID}, oldSlotIDs...)
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i] < lockOrder[j] })

	var newSlot *model.TimeSlot
	for _, id := range lockOrder {
		slot, err := lockSlot(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if id == p.NewSlotID {
			newSlot = slot
		}
	}

	if newSlot == nil {
		return nil, model.ErrNotFound
	}

	if err := validateSlotForBooking(newSlot, booking.MentorID, p.Granularity, p.Now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE time_slots
		SET is_booked = false, is_available = true, booking_id = NULL, updated_at = now()
		WHERE booking_id = $1
	`, p.BookingID)
	if err != nil {
		return nil, fmt.Errorf("release old slots: %w", err)
	}

	if err := bookSlot(ctx, tx, newSlot.ID, booking.ID); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET start_time = $1, end_time = $2, updated_at = now()
		WHERE id = $3
	`, newSlot.StartTime, newSlot.EndTime, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("update booking times: %w", err)
	}

	note := fmt.Sprintf("rescheduled from %s to %s",
		booking.StartTime.UTC().Format(time.RFC3339), newSlot.StartTime.UTC().Format(time.RFC3339))
	if err := insertStatusChange(ctx, tx, booking.ID, booking.Status, booking.Status, note); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	booking.StartTime = newSlot.StartTime
	booking.EndTime = newSlot.EndTime
	newSlot.IsBooked = true
	newSlot.IsAvailable = false
	newSlot.BookingID = &booking.ID
	booking.Slots = []*model.TimeSlot{newSlot}

	return booking, nil
}

// UpdateCalendarInfo persists collaborator references after a commit.
// Best-effort from the caller's perspective.
func (r *BookingRepository) UpdateCalendarInfo(ctx context.Context, bookingID int64, eventID, meetLink, calendarLink string) error {
	query := `
		UPDATE bookings
		SET event_id = $1, meet_link = $2, calendar_link = $3, updated_at = now()
		WHERE id = $4
	`

	_, err := r.Pool().Exec(ctx, query, eventID, meetLink, calendarLink, bookingID)
	if err != nil {
		return fmt.Errorf("update calendar info: %w", err)
	}

	return nil
}

// CompleteElapsed transitions confirmed bookings whose sessions have ended
// to completed and records the transitions.
func (r *BookingRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]*model.Booking, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE bookings
		SET status = 'completed', updated_at = now()
		WHERE status = 'confirmed' AND end_time <= $1
		RETURNING `+bookingColumns,
		now)
	if err != nil {
		return nil, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	var completed []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		completed = append(completed, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	for _, b := range completed {
		if err := insertStatusChange(ctx, tx, b.ID, model.BookingStatusConfirmed, model.BookingStatusCompleted, ""); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return completed, nil
}

// GetStatusHistory возвращает историю статусов бронирования
func (r *BookingRepository) GetStatusHistory(ctx context.Context, bookingID int64) ([]*model.StatusChange, error) {
	query := `
		SELECT id, booking_id, COALESCE(from_status, ''), to_status, COALESCE(note, ''), changed_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY changed_at, id
	`

	rows, err := r.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get status history: %w", err)
	}
	defer rows.Close()

	var history []*model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.ID, &c.BookingID, &c.FromStatus, &c.ToStatus, &c.Note, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		history = append(history, &c)
	}

	return history, rows.Err()
}

// --- transaction helpers ---

func lockSlot(ctx context.Context, tx pgx.Tx, slotID int64) (*model.TimeSlot, error) {
	slot, err := scanSlot(tx.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE id = $1 FOR UPDATE NOWAIT`, slotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}
	return slot, nil
}

func lockBooking(ctx context.Context, tx pgx.Tx, bookingID int64) (*model.Booking, error) {
	booking, err := scanBooking(tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE NOWAIT`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return booking, nil
}

func validateSlotForBooking(slot *model.TimeSlot, mentorID int64, granularity time.Duration, now time.Time) error {
	if slot.MentorID != mentorID {
		return model.NewValidationError("mentor_id", "slot does not belong to mentor")
	}
	if slot.Duration() != granularity {
		return model.NewValidationError("slot_id", "slot duration does not match granularity")
	}
	if !slot.IsFree() {
		return model.ErrSlotUnavailable
	}
	if !slot.StartTime.After(now) {
		return model.ErrSlotUnavailable
	}
	return nil
}

func insertBooking(ctx context.Context, tx pgx.Tx, slot *model.TimeSlot, p ReserveParams) (*model.Booking, error) {
	attendees, err := json.Marshal(p.Attendees)
	if err != nil {
		return nil, fmt.Errorf("encode attendees: %w", err)
	}

	booking := &model.Booking{
		Reference: uuid.New(),
		UserID:    p.UserID,
		UserEmail: p.UserEmail,
		MentorID:  p.MentorID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    model.BookingStatusConfirmed,
		Attendees: p.Attendees,
		Notes:     p.Notes,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (reference, user_id, user_email, mentor_id, start_time, end_time, status, attendees, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		booking.Reference,
		booking.UserID,
		booking.UserEmail,
		booking.MentorID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		attendees,
		booking.Notes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	return booking, nil
}

func bookSlot(ctx context.Context, tx pgx.Tx, slotID, bookingID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE time_slots
		SET is_booked = true, is_available = false, booking_id = $1, updated_at = now()
		WHERE id = $2 AND is_booked = false
	`, bookingID, slotID)
	if err != nil {
		return fmt.Errorf("book slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSlotUnavailable
	}
	return nil
}

func updateBookingStatus(ctx context.Context, tx pgx.Tx, bookingID int64, status model.BookingStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`, status, bookingID)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func insertStatusChange(ctx context.Context, tx pgx.Tx, bookingID int64, from, to model.BookingStatus, note string) error {
	var fromVal interface{}
	if from != "" {
		fromVal = string(from)
	}
	var noteVal interface{}
	if note != "" {
		noteVal = note
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO booking_status_history (booking_id, from_status, to_status, note)
		VALUES ($1, $2, $3, $4)
	`, bookingID, fromVal, to, noteVal)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func slotIDsForBooking(ctx context.Context, tx pgx.Tx, bookingID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM time_slots WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking slots: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan slot id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
