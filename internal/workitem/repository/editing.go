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

const editingColumns = `id, episode_id, sound_recording_id, assigned_to, file_key, status,
	created_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanEditing(row pgx.Row) (SoundEditing, error) {
	var s SoundEditing
	err := row.Scan(&s.ID, &s.EpisodeID, &s.SoundRecordingID, &s.AssignedTo, &s.FileKey, &s.Status,
		&s.CreatedBy, &s.ReviewedBy, &s.ReviewedAt, &s.ReviewNotes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SoundEditing{}, apperr.NotFound("sound editing not found")
		}
		return SoundEditing{}, fmt.Errorf("scan sound editing: %w", err)
	}
	return s, nil
}

// CreateEditingParams creates one editing task, usually by cascade.
type CreateEditingParams struct {
	EpisodeID        uuid.UUID
	SoundRecordingID *uuid.UUID
	AssignedTo       *uuid.UUID
	CreatedBy        uuid.UUID
}

func (r *Repo) CreateEditingIn(ctx context.Context, q db.Querier, params CreateEditingParams) (SoundEditing, error) {
	query := `
		INSERT INTO sound_editings (episode_id, sound_recording_id, assigned_to, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + editingColumns

	return scanEditing(q.QueryRow(ctx, query,
		params.EpisodeID, params.SoundRecordingID, params.AssignedTo,
		domain.InitialStatus(domain.TypeSoundEditing), params.CreatedBy))
}

func (r *Repo) GetEditing(ctx context.Context, id uuid.UUID) (SoundEditing, error) {
	query := `SELECT ` + editingColumns + ` FROM sound_editings WHERE id = $1`
	return scanEditing(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListEditingsByEpisode(ctx context.Context, episodeID uuid.UUID) ([]SoundEditing, error) {
	query := `SELECT ` + editingColumns + ` FROM sound_editings WHERE episode_id = $1 ORDER BY created_at`
	return collectEditings(r.pool.Query(ctx, query, episodeID))
}

func (r *Repo) ListEditingsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]SoundEditing, error) {
	query := `SELECT ` + editingColumns + `
		FROM sound_editings
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)
		ORDER BY created_at`
	return collectEditings(r.pool.Query(ctx, query, statusStrings(statuses), assignedTo))
}

func (r *Repo) UpdateEditingStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE sound_editings
		SET status = $2,
		    reviewed_by = COALESCE($3, reviewed_by),
		    reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE NOW() END,
		    review_notes = COALESCE($4, review_notes),
		    file_key = COALESCE($5, file_key),
		    assigned_to = COALESCE($6, assigned_to),
		    updated_at = NOW()
		WHERE id = $1 AND status = $7`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.ReviewedBy, u.ReviewNotes, u.FileKey, u.AssignedTo, u.From)
}

func collectEditings(rows pgx.Rows, err error) ([]SoundEditing, error) {
	if err != nil {
		return nil, fmt.Errorf("query sound editings: %w", err)
	}
	defer rows.Close()

	var out []SoundEditing
	for rows.Next() {
		s, err := scanEditing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const editorWorkColumns = `id, episode_id, assigned_to, file_key, status,
	created_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanEditorWork(row pgx.Row) (EditorWork, error) {
	var w EditorWork
	err := row.Scan(&w.ID, &w.EpisodeID, &w.AssignedTo, &w.FileKey, &w.Status,
		&w.CreatedBy, &w.ReviewedBy, &w.ReviewedAt, &w.ReviewNotes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EditorWork{}, apperr.NotFound("editor work not found")
		}
		return EditorWork{}, fmt.Errorf("scan editor work: %w", err)
	}
	return w, nil
}

// CreateEditorWorkParams creates a video edit deliverable in draft.
type CreateEditorWorkParams struct {
	EpisodeID uuid.UUID
	CreatedBy uuid.UUID
}

func (r *Repo) CreateEditorWork(ctx context.Context, params CreateEditorWorkParams) (EditorWork, error) {
	query := `
		INSERT INTO editor_works (episode_id, assigned_to, status, created_by)
		VALUES ($1, $2, $3, $2)
		RETURNING ` + editorWorkColumns

	return scanEditorWork(r.pool.QueryRow(ctx, query,
		params.EpisodeID, params.CreatedBy, domain.InitialStatus(domain.TypeEditorWork)))
}

func (r *Repo) GetEditorWork(ctx context.Context, id uuid.UUID) (EditorWork, error) {
	query := `SELECT ` + editorWorkColumns + ` FROM editor_works WHERE id = $1`
	return scanEditorWork(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListEditorWorksByEpisode(ctx context.Context, episodeID uuid.UUID) ([]EditorWork, error) {
	query := `SELECT ` + editorWorkColumns + ` FROM editor_works WHERE episode_id = $1 ORDER BY created_at`
	return collectEditorWorks(r.pool.Query(ctx, query, episodeID))
}

func (r *Repo) ListEditorWorksPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]EditorWork, error) {
	query := `SELECT ` + editorWorkColumns + `
		FROM editor_works
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)
		ORDER BY created_at`
	return collectEditorWorks(r.pool.Query(ctx, query, statusStrings(statuses), assignedTo))
}

func (r *Repo) UpdateEditorWorkStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE editor_works
		SET status = $2,
		    reviewed_by = COALESCE($3, reviewed_by),
		    reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE NOW() END,
		    review_notes = COALESCE($4, review_notes),
		    file_key = COALESCE($5, file_key),
		    updated_at = NOW()
		WHERE id = $1 AND status = $6`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.ReviewedBy, u.ReviewNotes, u.FileKey, u.From)
}

func collectEditorWorks(rows pgx.Rows, err error) ([]EditorWork, error) {
	if err != nil {
		return nil, fmt.Errorf("query editor works: %w", err)
	}
	defer rows.Close()

	var out []EditorWork
	for rows.Next() {
		w, err := scanEditorWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
