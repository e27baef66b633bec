package service

import (
	"context"

	"github.com/google/uuid"

	episodedomain "studio_production_backend/internal/episode/domain"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/db"
)

// TeamResolver is the slice of the identity resolver the work-item
// service authorizes and fans out through.
type TeamResolver interface {
	Authorize(ctx context.Context, userID, episodeID uuid.UUID, role identitydomain.RoleTag) error
	AuthorizeOwnership(ctx context.Context, userID, episodeID uuid.UUID) error
	RequireManagerProgram(ctx context.Context, userID uuid.UUID) error
	ActiveMembers(ctx context.Context, episodeID uuid.UUID, role identitydomain.RoleTag) ([]uuid.UUID, error)
	GlobalRoleHolders(ctx context.Context, role string) ([]uuid.UUID, error)
	// MemberEpisodes returns the episodes the user may act on through
	// team resolution.
	MemberEpisodes(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// EpisodeStages moves the episode stage inside the cascade transaction.
type EpisodeStages interface {
	EnsureStageAtLeastIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, to episodedomain.Stage, ownerRole, reason string, actorID uuid.UUID) error
	RevertStageIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, to episodedomain.Stage, ownerRole, reason string, actorID uuid.UUID) error
}

// BudgetRequester files the budget-request escalation created by the
// creative-work approve cascade, inside the same transaction.
type BudgetRequester interface {
	RequestBudgetIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, amount int64, requestedBy uuid.UUID) error
}

// Notifier persists notification records after the transaction commits.
// Failures are the notifier's problem; the cascade never rolls back on
// a failed notification.
type Notifier interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, ntype, title, message string, data map[string]any, episodeID *uuid.UUID)
}
