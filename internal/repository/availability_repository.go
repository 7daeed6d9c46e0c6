package repository

import (
	"context"
	"fmt"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AvailabilityRepository управляет интервалами недельного шаблона в базе данных
type AvailabilityRepository struct {
	*base.Repository
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(pool)}
}

const availabilityColumns = `id, group_id, mentor_id, weekday, start_hour, start_minute, end_hour, end_minute, is_active, created_at, updated_at`

func scanAvailability(row pgx.Row) (*model.WeeklyAvailability, error) {
	a := &model.WeeklyAvailability{}
	err := row.Scan(
		&a.ID,
		&a.GroupID,
		&a.MentorID,
		&a.Weekday,
		&a.StartHour,
		&a.StartMinute,
		&a.EndHour,
		&a.EndMinute,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create создаёт новый интервал шаблона
func (r *AvailabilityRepository) Create(ctx context.Context, a *model.WeeklyAvailability) error {
	query := `
		INSERT INTO weekly_availabilities (group_id, mentor_id, weekday, start_hour, start_minute, end_hour, end_minute, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		a.GroupID,
		a.MentorID,
		a.Weekday,
		a.StartHour,
		a.StartMinute,
		a.EndHour,
		a.EndMinute,
		a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create weekly availability: %w", err)
	}

	return nil
}

// GetByMentorID получает все интервалы шаблона ментора
func (r *AvailabilityRepository) GetByMentorID(ctx context.Context, mentorID int64) ([]*model.WeeklyAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM weekly_availabilities
		WHERE mentor_id = $1
		ORDER BY weekday, start_hour, start_minute
	`

	return r.queryMany(ctx, query, mentorID)
}

// GetActiveByMentorID получает активные интервалы шаблона ментора
func (r *AvailabilityRepository) GetActiveByMentorID(ctx context.Context, mentorID int64) ([]*model.WeeklyAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM weekly_availabilities
		WHERE mentor_id = $1 AND is_active = true
		ORDER BY weekday, start_hour, start_minute
	`

	return r.queryMany(ctx, query, mentorID)
}

// GetByGroupID получает все интервалы по group_id
func (r *AvailabilityRepository) GetByGroupID(ctx context.Context, groupID string) ([]*model.WeeklyAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM weekly_availabilities
		WHERE group_id = $1
		ORDER BY weekday, start_hour, start_minute
	`

	return r.queryMany(ctx, query, groupID)
}

// Deactivate деактивирует интервал шаблона
func (r *AvailabilityRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE weekly_availabilities SET is_active = false, updated_at = now() WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate weekly availability: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AvailabilityRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*model.WeeklyAvailability, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get weekly availabilities: %w", err)
	}
	defer rows.Close()

	var items []*model.WeeklyAvailability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weekly availability: %w", err)
		}
		items = append(items, a)
	}

	return items, rows.Err()
}

// GetByID получает интервал шаблона по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*model.WeeklyAvailability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM weekly_availabilities WHERE id = $1`

	a, err := scanAvailability(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get weekly availability by id: %w", err)
	}

	return a, nil
}
