package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTeamRequest contains data for creating a production team.
type CreateTeamRequest struct {
	ProgramID  uuid.UUID `json:"programId" validate:"required"`
	ProducerID uuid.UUID `json:"producerId" validate:"required"`
	Name       string    `json:"name" validate:"required,min=1,max=120"`
}

// AssignTeamRequest binds a team to an episode.
type AssignTeamRequest struct {
	TeamID uuid.UUID `json:"teamId" validate:"required"`
}

// MemberUpsertRequest is one roster entry in a ReplaceMembers call.
type MemberUpsertRequest struct {
	UserID   uuid.UUID `json:"userId" validate:"required"`
	Role     string    `json:"role" validate:"required"`
	IsActive bool      `json:"isActive"`
}

// ReplaceMembersRequest swaps a team's full roster.
type ReplaceMembersRequest struct {
	Members []MemberUpsertRequest `json:"members" validate:"required,min=1,dive"`
}

// TeamResponse represents a production team in API responses.
type TeamResponse struct {
	ID         uuid.UUID `json:"id"`
	ProgramID  uuid.UUID `json:"programId"`
	ProducerID uuid.UUID `json:"producerId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MemberResponse represents a roster entry in API responses.
type MemberResponse struct {
	ID       uuid.UUID `json:"id"`
	TeamID   uuid.UUID `json:"teamId"`
	UserID   uuid.UUID `json:"userId"`
	Role     string    `json:"role"`
	RoleName string    `json:"roleName"`
	IsActive bool      `json:"isActive"`
}
