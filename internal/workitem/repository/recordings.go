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

const recordingColumns = `id, episode_id, music_arrangement_id, assigned_to, file_key, status,
	created_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanRecording(row pgx.Row) (SoundRecording, error) {
	var s SoundRecording
	err := row.Scan(&s.ID, &s.EpisodeID, &s.MusicArrangementID, &s.AssignedTo, &s.FileKey, &s.Status,
		&s.CreatedBy, &s.ReviewedBy, &s.ReviewedAt, &s.ReviewNotes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SoundRecording{}, apperr.NotFound("sound recording not found")
		}
		return SoundRecording{}, fmt.Errorf("scan sound recording: %w", err)
	}
	return s, nil
}

// CreateRecordingParams creates one recording task, usually by cascade.
type CreateRecordingParams struct {
	EpisodeID          uuid.UUID
	MusicArrangementID *uuid.UUID
	AssignedTo         *uuid.UUID
	CreatedBy          uuid.UUID
}

// CreateRecordingIn inserts inside the caller's transaction so cascade
// creation and the triggering status update commit together.
func (r *Repo) CreateRecordingIn(ctx context.Context, q db.Querier, params CreateRecordingParams) (SoundRecording, error) {
	query := `
		INSERT INTO sound_recordings (episode_id, music_arrangement_id, assigned_to, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + recordingColumns

	return scanRecording(q.QueryRow(ctx, query,
		params.EpisodeID, params.MusicArrangementID, params.AssignedTo,
		domain.InitialStatus(domain.TypeSoundRecording), params.CreatedBy))
}

func (r *Repo) GetRecording(ctx context.Context, id uuid.UUID) (SoundRecording, error) {
	query := `SELECT ` + recordingColumns + ` FROM sound_recordings WHERE id = $1`
	return scanRecording(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListRecordingsByEpisode(ctx context.Context, episodeID uuid.UUID) ([]SoundRecording, error) {
	query := `SELECT ` + recordingColumns + ` FROM sound_recordings WHERE episode_id = $1 ORDER BY created_at`
	return collectRecordings(r.pool.Query(ctx, query, episodeID))
}

func (r *Repo) ListRecordingsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]SoundRecording, error) {
	query := `SELECT ` + recordingColumns + `
		FROM sound_recordings
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)
		ORDER BY created_at`
	return collectRecordings(r.pool.Query(ctx, query, statusStrings(statuses), assignedTo))
}

func (r *Repo) UpdateRecordingStatusGuarded(ctx context.Context, q db.Querier, u StatusUpdate) (bool, error) {
	query := `
		UPDATE sound_recordings
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

func collectRecordings(rows pgx.Rows, err error) ([]SoundRecording, error) {
	if err != nil {
		return nil, fmt.Errorf("query sound recordings: %w", err)
	}
	defer rows.Close()

	var out []SoundRecording
	for rows.Next() {
		s, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
