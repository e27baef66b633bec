// Package repository implements work-item persistence on PostgreSQL.
// All status transitions are optimistic, status-guarded writes: the
// UPDATE only matches while the row still holds the expected status, so
// the loser of a race sees zero rows and never fires a cascade.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/platform/db"
)

// Repo provides work-item persistence across all variant tables.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed work-item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Pool exposes the underlying pool so the service can open the
// transaction the guarded update and its cascade share.
func (r *Repo) Pool() *pgxpool.Pool {
	return r.pool
}

// execGuarded runs a status-guarded UPDATE and reports whether the
// expected row was matched.
func (r *Repo) execGuarded(ctx context.Context, q db.Querier, query string, args ...any) (bool, error) {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("guarded status update: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
