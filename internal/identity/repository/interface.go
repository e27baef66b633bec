package repository

import (
	"context"
	"time"

	"studio_production_backend/internal/identity/domain"

	"github.com/google/uuid"
)

// User is an account row. Role is the global role string; team-scoped
// roles live on TeamMember rows.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Team is a production team owned by exactly one producer.
type Team struct {
	ID         uuid.UUID
	ProgramID  uuid.UUID
	ProducerID uuid.UUID
	Name       string
	CreatedAt  time.Time
}

// Member is a role-tagged roster entry.
type Member struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	UserID    uuid.UUID
	Role      domain.RoleTag
	IsActive  bool
	CreatedAt time.Time
}

// MemberUpsert describes one roster entry in a ReplaceMembers call.
type MemberUpsert struct {
	UserID   uuid.UUID
	Role     domain.RoleTag
	IsActive bool
}

// CreateTeamParams contains parameters for creating a production team.
type CreateTeamParams struct {
	ProgramID  uuid.UUID
	ProducerID uuid.UUID
	Name       string
}

// UserReader provides read operations on accounts.
type UserReader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsersByGlobalRole(ctx context.Context, role string) ([]User, error)
}

// TeamReader provides read operations on teams and rosters.
type TeamReader interface {
	GetTeamByID(ctx context.Context, id uuid.UUID) (Team, error)
	// GetTeamForEpisode resolves the team scope for an episode: the
	// episode-level assignment when present, otherwise the team of the
	// episode's parent program. apperr.NotFound when neither exists.
	GetTeamForEpisode(ctx context.Context, episodeID uuid.UUID) (Team, error)
	ListActiveMembers(ctx context.Context, teamID uuid.UUID, role domain.RoleTag) ([]Member, error)
	IsActiveMember(ctx context.Context, teamID, userID uuid.UUID, role domain.RoleTag) (bool, error)
	// ListEpisodeIDsForUser returns every episode whose resolved team
	// has the user as owning producer or active member.
	ListEpisodeIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// TeamWriter provides write operations on teams and rosters.
type TeamWriter interface {
	CreateTeam(ctx context.Context, params CreateTeamParams) (Team, error)
	AssignTeamToEpisode(ctx context.Context, episodeID, teamID uuid.UUID) error
	// ReplaceMembers swaps the full roster of a team atomically: all
	// rows commit or none do.
	ReplaceMembers(ctx context.Context, teamID uuid.UUID, members []MemberUpsert) ([]Member, error)
}

// Repository combines all identity repository operations.
type Repository interface {
	UserReader
	TeamReader
	TeamWriter
}
