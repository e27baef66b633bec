// Package repository implements approval persistence on PostgreSQL.
// Approvals are generic escalation records: a request for a decision
// from a different role, distinct from work-item pipeline status.
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

// Approvable types.
const (
	TypeScheduleOption = "schedule_option"
	TypeBudgetRequest  = "budget_request"
	TypeSpecialBudget  = "special_budget"
)

// Approval statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Approval is one escalation record.
type Approval struct {
	ID             uuid.UUID
	ApprovableType string
	ApprovableID   *uuid.UUID
	EpisodeID      *uuid.UUID
	ProgramID      *uuid.UUID
	RequestedBy    uuid.UUID
	Status         string
	RequestData    []byte
	ReviewedBy     *uuid.UUID
	ReviewedAt     *time.Time
	ReviewNotes    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateParams files a new pending approval.
type CreateParams struct {
	ApprovableType string
	ApprovableID   *uuid.UUID
	EpisodeID      *uuid.UUID
	ProgramID      *uuid.UUID
	RequestedBy    uuid.UUID
	RequestData    []byte
}

// Repository combines all approval repository operations.
type Repository interface {
	CreateIn(ctx context.Context, q db.Querier, params CreateParams) (Approval, error)
	Create(ctx context.Context, params CreateParams) (Approval, error)
	Get(ctx context.Context, id uuid.UUID) (Approval, error)
	ListPending(ctx context.Context, approvableType string) ([]Approval, error)

	// ReviewGuarded records the decision only while the approval is still
	// pending; false means another reviewer decided it first.
	ReviewGuarded(ctx context.Context, q db.Querier, id, reviewedBy uuid.UUID, status string, notes *string) (bool, error)
}

// Repo provides approval persistence.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// New creates a PostgreSQL-backed approval repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const approvalColumns = `id, approvable_type, approvable_id, episode_id, program_id, requested_by,
	status, request_data, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanApproval(row pgx.Row) (Approval, error) {
	var a Approval
	err := row.Scan(&a.ID, &a.ApprovableType, &a.ApprovableID, &a.EpisodeID, &a.ProgramID, &a.RequestedBy,
		&a.Status, &a.RequestData, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNotes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approval{}, apperr.NotFound("approval not found")
		}
		return Approval{}, fmt.Errorf("scan approval: %w", err)
	}
	return a, nil
}

// CreateIn files the approval inside the caller's transaction; cascades
// use it so the escalation commits with the triggering transition.
func (r *Repo) CreateIn(ctx context.Context, q db.Querier, params CreateParams) (Approval, error) {
	query := `
		INSERT INTO approvals (approvable_type, approvable_id, episode_id, program_id, requested_by, status, request_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + approvalColumns

	return scanApproval(q.QueryRow(ctx, query,
		params.ApprovableType, params.ApprovableID, params.EpisodeID, params.ProgramID,
		params.RequestedBy, StatusPending, params.RequestData))
}

// Create files the approval outside any transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Approval, error) {
	return r.CreateIn(ctx, r.pool, params)
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1`
	return scanApproval(r.pool.QueryRow(ctx, query, id))
}

// ListPending returns pending approvals, optionally of one type.
func (r *Repo) ListPending(ctx context.Context, approvableType string) ([]Approval, error) {
	query := `SELECT ` + approvalColumns + `
		FROM approvals
		WHERE status = $1 AND ($2 = '' OR approvable_type = $2)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, StatusPending, approvableType)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	defer rows.Close()

	var approvals []Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ReviewGuarded records the decision only while the approval is still
// pending; reports false when another reviewer decided first.
func (r *Repo) ReviewGuarded(ctx context.Context, q db.Querier, id, reviewedBy uuid.UUID, status string, notes *string) (bool, error) {
	query := `
		UPDATE approvals
		SET status = $2, reviewed_by = $3, reviewed_at = NOW(), review_notes = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`

	tag, err := q.Exec(ctx, query, id, status, reviewedBy, notes, StatusPending)
	if err != nil {
		return false, fmt.Errorf("review approval: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
