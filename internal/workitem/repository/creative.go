package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
)

const creativeColumns = `id, episode_id, status, script_url, storyboard_url, total_budget,
	shooting_schedule, vocal_recording_schedule, created_by, reviewed_by, reviewed_at, review_notes,
	created_at, updated_at`

func scanCreative(row pgx.Row) (CreativeWork, error) {
	var w CreativeWork
	err := row.Scan(&w.ID, &w.EpisodeID, &w.Status, &w.ScriptURL, &w.StoryboardURL, &w.TotalBudget,
		&w.ShootingSchedule, &w.VocalRecordingSchedule, &w.CreatedBy, &w.ReviewedBy, &w.ReviewedAt,
		&w.ReviewNotes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreativeWork{}, apperr.NotFound("creative work not found")
		}
		return CreativeWork{}, fmt.Errorf("scan creative work: %w", err)
	}
	return w, nil
}

// CreateCreativeParams creates a creative work already in submitted state.
type CreateCreativeParams struct {
	EpisodeID              uuid.UUID
	ScriptURL              *string
	StoryboardURL          *string
	TotalBudget            int64
	ShootingSchedule       *time.Time
	VocalRecordingSchedule *time.Time
	CreatedBy              uuid.UUID
}

func (r *Repo) CreateCreative(ctx context.Context, params CreateCreativeParams) (CreativeWork, error) {
	query := `
		INSERT INTO creative_works (episode_id, status, script_url, storyboard_url, total_budget,
			shooting_schedule, vocal_recording_schedule, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + creativeColumns

	return scanCreative(r.pool.QueryRow(ctx, query,
		params.EpisodeID, domain.InitialStatus(domain.TypeCreativeWork),
		params.ScriptURL, params.StoryboardURL, params.TotalBudget,
		params.ShootingSchedule, params.VocalRecordingSchedule, params.CreatedBy))
}

func (r *Repo) GetCreative(ctx context.Context, id uuid.UUID) (CreativeWork, error) {
	query := `SELECT ` + creativeColumns + ` FROM creative_works WHERE id = $1`
	return scanCreative(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListCreativeByEpisode(ctx context.Context, episodeID uuid.UUID) ([]CreativeWork, error) {
	query := `SELECT ` + creativeColumns + ` FROM creative_works WHERE episode_id = $1 ORDER BY created_at`
	return collectCreative(r.pool.Query(ctx, query, episodeID))
}

func (r *Repo) ListCreativePending(ctx context.Context, statuses []domain.Status, createdBy *uuid.UUID) ([]CreativeWork, error) {
	query := `SELECT ` + creativeColumns + `
		FROM creative_works
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR created_by = $2)
		ORDER BY created_at`
	return collectCreative(r.pool.Query(ctx, query, statusStrings(statuses), createdBy))
}

// UpdateCreativeFields lets the creator amend the package while it is
// editable (rejected or revised); approval reads the stored values.
func (r *Repo) UpdateCreativeFields(ctx context.Context, id uuid.UUID, params CreateCreativeParams) (CreativeWork, error) {
	query := `
		UPDATE creative_works
		SET script_url = $2, storyboard_url = $3, total_budget = $4,
		    shooting_schedule = $5, vocal_recording_schedule = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + creativeColumns

	return scanCreative(r.pool.QueryRow(ctx, query, id,
		params.ScriptURL, params.StoryboardURL, params.TotalBudget,
		params.ShootingSchedule, params.VocalRecordingSchedule))
}

func (r *Repo) UpdateCreativeStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE creative_works
		SET status = $2,
		    reviewed_by = COALESCE($3, reviewed_by),
		    reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE NOW() END,
		    review_notes = COALESCE($4, review_notes),
		    updated_at = NOW()
		WHERE id = $1 AND status = $5`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.ReviewedBy, u.ReviewNotes, u.From)
}

func collectCreative(rows pgx.Rows, err error) ([]CreativeWork, error) {
	if err != nil {
		return nil, fmt.Errorf("query creative works: %w", err)
	}
	defer rows.Close()

	var out []CreativeWork
	for rows.Next() {
		w, err := scanCreative(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
