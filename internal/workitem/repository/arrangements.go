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

const arrangementColumns = `id, episode_id, song_title, song_notes, file_key, status, needs_help,
	assigned_to, created_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanArrangement(row pgx.Row) (MusicArrangement, error) {
	var a MusicArrangement
	err := row.Scan(&a.ID, &a.EpisodeID, &a.SongTitle, &a.SongNotes, &a.FileKey, &a.Status, &a.NeedsHelp,
		&a.AssignedTo, &a.CreatedBy, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNotes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MusicArrangement{}, apperr.NotFound("music arrangement not found")
		}
		return MusicArrangement{}, fmt.Errorf("scan music arrangement: %w", err)
	}
	return a, nil
}

// CreateArrangementParams creates a new song proposal in draft.
type CreateArrangementParams struct {
	EpisodeID uuid.UUID
	SongTitle string
	SongNotes *string
	CreatedBy uuid.UUID
}

func (r *Repo) CreateArrangement(ctx context.Context, params CreateArrangementParams) (MusicArrangement, error) {
	query := `
		INSERT INTO music_arrangements (episode_id, song_title, song_notes, status, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + arrangementColumns

	return scanArrangement(r.pool.QueryRow(ctx, query,
		params.EpisodeID, params.SongTitle, params.SongNotes,
		domain.InitialStatus(domain.TypeMusicArrangement), params.CreatedBy))
}

func (r *Repo) GetArrangement(ctx context.Context, id uuid.UUID) (MusicArrangement, error) {
	query := `SELECT ` + arrangementColumns + ` FROM music_arrangements WHERE id = $1`
	return scanArrangement(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListArrangementsByEpisode(ctx context.Context, episodeID uuid.UUID) ([]MusicArrangement, error) {
	query := `SELECT ` + arrangementColumns + ` FROM music_arrangements WHERE episode_id = $1 ORDER BY created_at`
	return collectArrangements(r.pool.Query(ctx, query, episodeID))
}

// ListArrangementsPending returns items sitting in any of the given
// statuses, optionally restricted to one assignee.
func (r *Repo) ListArrangementsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]MusicArrangement, error) {
	query := `SELECT ` + arrangementColumns + `
		FROM music_arrangements
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2 OR needs_help)
		ORDER BY created_at`
	return collectArrangements(r.pool.Query(ctx, query, statusStrings(statuses), assignedTo))
}

// UpdateArrangementStatusGuarded applies the transition write. The row
// must still hold the expected status.
func (r *Repo) UpdateArrangementStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE music_arrangements
		SET status = $2,
		    reviewed_by = COALESCE($3, reviewed_by),
		    reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE NOW() END,
		    review_notes = COALESCE($4, review_notes),
		    needs_help = COALESCE($5, needs_help),
		    file_key = COALESCE($6, file_key),
		    assigned_to = CASE WHEN $7 THEN NULL ELSE COALESCE($8, assigned_to) END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $9`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.ReviewedBy, u.ReviewNotes,
		u.NeedsHelp, u.FileKey, u.ClearAssignee, u.AssignedTo, u.From)
}

func collectArrangements(rows pgx.Rows, err error) ([]MusicArrangement, error) {
	if err != nil {
		return nil, fmt.Errorf("query music arrangements: %w", err)
	}
	defer rows.Close()

	var out []MusicArrangement
	for rows.Next() {
		a, err := scanArrangement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
