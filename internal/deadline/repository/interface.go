package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studio_production_backend/platform/db"
)

// Deadline is one per-role due date for an episode.
type Deadline struct {
	ID           uuid.UUID
	EpisodeID    uuid.UUID
	Role         string
	Title        string
	DeadlineDate time.Time
	IsCompleted  bool
	CompletedBy  *uuid.UUID
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Revision is one audit row recording a deadline date change.
type Revision struct {
	ID           uuid.UUID
	DeadlineID   uuid.UUID
	PreviousDate time.Time
	NewDate      time.Time
	Reason       string
	ChangedBy    uuid.UUID
	ChangedAt    time.Time
}

// InsertParams creates one deadline row.
type InsertParams struct {
	EpisodeID    uuid.UUID
	Role         string
	Title        string
	DeadlineDate time.Time
}

// RevisionParams appends one audit row.
type RevisionParams struct {
	DeadlineID   uuid.UUID
	PreviousDate time.Time
	NewDate      time.Time
	Reason       string
	ChangedBy    uuid.UUID
}

// Repository is the persistence port for deadlines and their audit trail.
type Repository interface {
	InsertIn(ctx context.Context, q db.Querier, params InsertParams) (Deadline, error)
	Get(ctx context.Context, id uuid.UUID) (Deadline, error)
	GetIn(ctx context.Context, q db.Querier, id uuid.UUID) (Deadline, error)
	ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]Deadline, error)
	ListRevisions(ctx context.Context, deadlineID uuid.UUID) ([]Revision, error)

	// UpdateDateIn moves the due date inside the caller's transaction.
	UpdateDateIn(ctx context.Context, q db.Querier, id uuid.UUID, newDate time.Time) error
	// InsertRevisionIn appends the audit row inside the same transaction.
	InsertRevisionIn(ctx context.Context, q db.Querier, params RevisionParams) error
	// MarkCompletedGuarded completes a deadline only while it is still
	// open; reports false when another writer completed it first.
	MarkCompletedGuarded(ctx context.Context, id, completedBy uuid.UUID) (bool, error)
}
