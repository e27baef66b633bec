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

// supportTable maps the two task-style variants onto their tables. Both
// share one schema, so one set of queries serves them.
func supportTable(kind domain.Type) (string, error) {
	switch kind {
	case domain.TypeProductionSupport:
		return "production_support_works", nil
	case domain.TypePromotionWork:
		return "promotion_works", nil
	}
	return "", fmt.Errorf("not a support-work variant: %s", kind)
}

const supportColumns = `id, episode_id, description, assigned_to, status, created_by, created_at, updated_at`

func scanSupport(kind domain.Type, row pgx.Row) (SupportWork, error) {
	w := SupportWork{Kind: kind}
	err := row.Scan(&w.ID, &w.EpisodeID, &w.Description, &w.AssignedTo, &w.Status,
		&w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SupportWork{}, apperr.NotFound("work item not found")
		}
		return SupportWork{}, fmt.Errorf("scan support work: %w", err)
	}
	return w, nil
}

// CreateSupportParams creates one task-style work item, usually by cascade.
type CreateSupportParams struct {
	EpisodeID   uuid.UUID
	Description string
	CreatedBy   uuid.UUID
}

func (r *Repo) CreateSupportIn(ctx context.Context, q db.Querier, kind domain.Type, params CreateSupportParams) (SupportWork, error) {
	table, err := supportTable(kind)
	if err != nil {
		return SupportWork{}, err
	}
	query := `
		INSERT INTO ` + table + ` (episode_id, description, status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + supportColumns

	return scanSupport(kind, q.QueryRow(ctx, query,
		params.EpisodeID, params.Description, domain.InitialStatus(kind), params.CreatedBy))
}

func (r *Repo) GetSupport(ctx context.Context, kind domain.Type, id uuid.UUID) (SupportWork, error) {
	table, err := supportTable(kind)
	if err != nil {
		return SupportWork{}, err
	}
	query := `SELECT ` + supportColumns + ` FROM ` + table + ` WHERE id = $1`
	return scanSupport(kind, r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) ListSupportByEpisode(ctx context.Context, kind domain.Type, episodeID uuid.UUID) ([]SupportWork, error) {
	table, err := supportTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + supportColumns + ` FROM ` + table + ` WHERE episode_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, episodeID)
	return collectSupport(kind, rows, err)
}

func (r *Repo) ListSupportPending(ctx context.Context, kind domain.Type, statuses []domain.Status, assignedTo *uuid.UUID) ([]SupportWork, error) {
	table, err := supportTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + supportColumns + `
		FROM ` + table + `
		WHERE status = ANY($1) AND ($2::uuid IS NULL OR assigned_to = $2)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, statusStrings(statuses), assignedTo)
	return collectSupport(kind, rows, err)
}

func (r *Repo) UpdateSupportStatusGuarded(ctx context.Context, q db.Querier, kind domain.Type, u StatusUpdate) (bool, error) {
	table, err := supportTable(kind)
	if err != nil {
		return false, err
	}
	query := `
		UPDATE ` + table + `
		SET status = $2,
		    assigned_to = COALESCE($3, assigned_to),
		    updated_at = NOW()
		WHERE id = $1 AND status = $4`

	return r.execGuarded(ctx, q, query, u.ID, u.To, u.AssignedTo, u.From)
}

func collectSupport(kind domain.Type, rows pgx.Rows, err error) ([]SupportWork, error) {
	if err != nil {
		return nil, fmt.Errorf("query support works: %w", err)
	}
	defer rows.Close()

	var out []SupportWork
	for rows.Next() {
		w, err := scanSupport(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
