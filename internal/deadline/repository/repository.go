// Package repository implements deadline persistence on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
)

type repo struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed deadline repository.
func New(pool *pgxpool.Pool) Repository {
	return &repo{pool: pool}
}

const deadlineColumns = `id, episode_id, role, title, deadline_date, is_completed, completed_by, completed_at, created_at, updated_at`

func scanDeadline(row pgx.Row) (Deadline, error) {
	var d Deadline
	err := row.Scan(&d.ID, &d.EpisodeID, &d.Role, &d.Title, &d.DeadlineDate,
		&d.IsCompleted, &d.CompletedBy, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deadline{}, apperr.NotFound("deadline not found")
		}
		return Deadline{}, fmt.Errorf("scan deadline: %w", err)
	}
	return d, nil
}

func (r *repo) InsertIn(ctx context.Context, q db.Querier, params InsertParams) (Deadline, error) {
	query := `
		INSERT INTO deadlines (episode_id, role, title, deadline_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + deadlineColumns

	return scanDeadline(q.QueryRow(ctx, query,
		params.EpisodeID, params.Role, params.Title, params.DeadlineDate))
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (Deadline, error) {
	return r.GetIn(ctx, r.pool, id)
}

func (r *repo) GetIn(ctx context.Context, q db.Querier, id uuid.UUID) (Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE id = $1`
	return scanDeadline(q.QueryRow(ctx, query, id))
}

func (r *repo) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE episode_id = $1 ORDER BY deadline_date, role`

	rows, err := r.pool.Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []Deadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

func (r *repo) ListRevisions(ctx context.Context, deadlineID uuid.UUID) ([]Revision, error) {
	query := `
		SELECT id, deadline_id, previous_date, new_date, reason, changed_by, changed_at
		FROM deadline_revisions
		WHERE deadline_id = $1
		ORDER BY changed_at`

	rows, err := r.pool.Query(ctx, query, deadlineID)
	if err != nil {
		return nil, fmt.Errorf("list deadline revisions: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.DeadlineID, &rev.PreviousDate, &rev.NewDate,
			&rev.Reason, &rev.ChangedBy, &rev.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan deadline revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

func (r *repo) UpdateDateIn(ctx context.Context, q db.Querier, id uuid.UUID, newDate time.Time) error {
	query := `UPDATE deadlines SET deadline_date = $2, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, newDate)
	if err != nil {
		return fmt.Errorf("update deadline date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deadline not found")
	}
	return nil
}

func (r *repo) InsertRevisionIn(ctx context.Context, q db.Querier, params RevisionParams) error {
	query := `
		INSERT INTO deadline_revisions (deadline_id, previous_date, new_date, reason, changed_by)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := q.Exec(ctx, query,
		params.DeadlineID, params.PreviousDate, params.NewDate, params.Reason, params.ChangedBy); err != nil {
		return fmt.Errorf("insert deadline revision: %w", err)
	}
	return nil
}

func (r *repo) MarkCompletedGuarded(ctx context.Context, id, completedBy uuid.UUID) (bool, error) {
	query := `
		UPDATE deadlines
		SET is_completed = TRUE, completed_by = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_completed = FALSE`

	tag, err := r.pool.Exec(ctx, query, id, completedBy)
	if err != nil {
		return false, fmt.Errorf("complete deadline: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
