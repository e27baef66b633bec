package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
)

const qcColumns = `id, episode_id, editor_work_id, notes, status,
	created_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanQC(row pgx.Row) (QualityControl, error) {
	var q QualityControl
	err := row.Scan(&q.ID, &q.EpisodeID, &q.EditorWorkID, &q.Notes, &q.Status,
		&q.CreatedBy, &q.ReviewedBy, &q.ReviewedAt, &q.ReviewNotes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QualityControl{}, apperr.NotFound("quality control not found")
		}
		return QualityControl{}, fmt.Errorf("scan quality control: %w", err)
	}
	return q, nil
}

// CreateQCParams creates the final review gate, usually by cascade.
type CreateQCParams struct {
	EpisodeID    uuid.UUID
	EditorWorkID *uuid.UUID
	CreatedBy    uuid.UUID
}

func (r *Repo) CreateQCIn(ctx context.Context, q db.Querier, params CreateQCParams) (QualityControl, error) {
	query := `
		INSERT INTO quality_controls (episode_id, editor_work_id, status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + qcColumns

	return scanQC(q.QueryRow(ctx, query,
		params.EpisodeID, params.EditorWorkID,
		domain.InitialStatus(domain.TypeQualityControl), params.CreatedBy))
}

func (r *Repo) GetQC(ctx context.Context, id uuid.UUID) (QualityControl, error) {
	query := `SELECT ` + qcColumns + ` FROM quality_controls WHERE id = $1`
	return scanQC(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListQCByEpisode(ctx context.Context, episodeID uuid.UUID) ([]QualityControl, error) {
	query := `SELECT ` + qcColumns + ` FROM quality_controls WHERE episode_id = $1 ORDER BY created_at`
	return collectQC(r.pool.Query(ctx, query, episodeID))
}

func (r *Repo) ListQCPending(ctx context.Context, statuses []domain.Status) ([]QualityControl, error) {
	query := `SELECT ` + qcColumns + ` FROM quality_controls WHERE status = ANY($1) ORDER BY created_at`
	return collectQC(r.pool.Query(ctx, query, statusStrings(statuses)))
}

func (r *Repo) UpdateQCStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE quality_controls
		SET status = $2,
		    reviewed_by = COALESCE($3, reviewed_by),
		    reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE NOW() END,
		    review_notes = COALESCE($4, review_notes),
		    updated_at = NOW()
		WHERE id = $1 AND status = $5`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.ReviewedBy, u.ReviewNotes, u.From)
}

func collectQC(rows pgx.Rows, err error) ([]QualityControl, error) {
	if err != nil {
		return nil, fmt.Errorf("query quality controls: %w", err)
	}
	defer rows.Close()

	var out []QualityControl
	for rows.Next() {
		q, err := scanQC(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
