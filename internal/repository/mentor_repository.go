package repository

import (
	"context"
	"fmt"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MentorRepository is the mentor directory: identity, timezone and calendar
// link resolution. Read-only from the scheduling engine's perspective.
type MentorRepository struct {
	*base.Repository
}

func NewMentorRepository(pool *pgxpool.Pool) *MentorRepository {
	return &MentorRepository{Repository: base.NewRepository(pool)}
}

const mentorColumns = `id, display_name, email, timezone, meet_link, is_active, created_at, updated_at`

func scanMentor(row pgx.Row) (*model.Mentor, error) {
	var m model.Mentor
	err := row.Scan(
		&m.ID,
		&m.DisplayName,
		&m.Email,
		&m.Timezone,
		&m.MeetLink,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create создаёт нового ментора
func (r *MentorRepository) Create(ctx context.Context, mentor *model.Mentor) error {
	query := `
		INSERT INTO mentors (display_name, email, timezone, meet_link, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		mentor.DisplayName,
		mentor.Email,
		mentor.Timezone,
		mentor.MeetLink,
		mentor.IsActive,
	).Scan(&mentor.ID, &mentor.CreatedAt, &mentor.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create mentor: %w", err)
	}

	return nil
}

// GetByID получает ментора по ID
func (r *MentorRepository) GetByID(ctx context.Context, id int64) (*model.Mentor, error) {
	query := `SELECT ` + mentorColumns + ` FROM mentors WHERE id = $1`

	mentor, err := scanMentor(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor by id: %w", err)
	}

	return mentor, nil
}

// GetByEmail получает ментора по email
func (r *MentorRepository) GetByEmail(ctx context.Context, email string) (*model.Mentor, error) {
	query := `SELECT ` + mentorColumns + ` FROM mentors WHERE email = $1`

	mentor, err := scanMentor(r.QueryRow(ctx, query, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor by email: %w", err)
	}

	return mentor, nil
}

// GetAllActive получает всех активных менторов
func (r *MentorRepository) GetAllActive(ctx context.Context) ([]*model.Mentor, error) {
	query := `SELECT ` + mentorColumns + ` FROM mentors WHERE is_active = true ORDER BY id`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active mentors: %w", err)
	}
	defer rows.Close()

	var mentors []*model.Mentor
	for rows.Next() {
		mentor, err := scanMentor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		mentors = append(mentors, mentor)
	}

	return mentors, rows.Err()
}
