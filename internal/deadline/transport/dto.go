// Package transport defines request and response DTOs for the deadline module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// EditDeadlineRequest moves a deadline to a new date. The reason is
// mandatory; it becomes part of the audit trail.
type EditDeadlineRequest struct {
	NewDate time.Time `json:"newDate" validate:"required"`
	Reason  string    `json:"reason" validate:"required,min=3,max=500"`
}

// DeadlineResponse is the API shape of one deadline.
type DeadlineResponse struct {
	ID           uuid.UUID  `json:"id"`
	EpisodeID    uuid.UUID  `json:"episodeId"`
	Role         string     `json:"role"`
	Title        string     `json:"title"`
	DeadlineDate time.Time  `json:"deadlineDate"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedBy  *uuid.UUID `json:"completedBy,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// RevisionResponse is one audit entry of a deadline date change.
type RevisionResponse struct {
	ID           uuid.UUID `json:"id"`
	PreviousDate time.Time `json:"previousDate"`
	NewDate      time.Time `json:"newDate"`
	Reason       string    `json:"reason"`
	ChangedBy    uuid.UUID `json:"changedBy"`
	ChangedAt    time.Time `json:"changedAt"`
}
