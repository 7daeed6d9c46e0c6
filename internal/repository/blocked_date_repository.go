package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/model"
	"github.com/Aniket1246/mentorbooking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockedDateRepository struct {
	*base.Repository
}

func NewBlockedDateRepository(pool *pgxpool.Pool) *BlockedDateRepository {
	return &BlockedDateRepository{Repository: base.NewRepository(pool)}
}

// Create блокирует дату для ментора
func (r *BlockedDateRepository) Create(ctx context.Context, blocked *model.BlockedDate) error {
	query := `
		INSERT INTO blocked_dates (mentor_id, date, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		blocked.MentorID,
		blocked.Date,
		blocked.Reason,
	).Scan(&blocked.ID, &blocked.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return model.NewValidationError("date", "already blocked")
		}
		return fmt.Errorf("create blocked date: %w", err)
	}

	return nil
}

// GetByMentorID получает заблокированные даты ментора в диапазоне
func (r *BlockedDateRepository) GetByMentorID(ctx context.Context, mentorID int64, from, to time.Time) ([]*model.BlockedDate, error) {
	query := `
		SELECT id, mentor_id, date, reason, created_at
		FROM blocked_dates
		WHERE mentor_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date
	`

	rows, err := r.Query(ctx, query, mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get blocked dates: %w", err)
	}
	defer rows.Close()

	var blocked []*model.BlockedDate
	for rows.Next() {
		var b model.BlockedDate
		err := rows.Scan(&b.ID, &b.MentorID, &b.Date, &b.Reason, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan blocked date: %w", err)
		}
		blocked = append(blocked, &b)
	}

	return blocked, rows.Err()
}

// Delete разблокирует дату
func (r *BlockedDateRepository) Delete(ctx context.Context, mentorID int64, date time.Time) error {
	query := `DELETE FROM blocked_dates WHERE mentor_id = $1 AND date = $2`

	affected, err := r.ExecAffected(ctx, query, mentorID, date)
	if err != nil {
		return fmt.Errorf("delete blocked date: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}
