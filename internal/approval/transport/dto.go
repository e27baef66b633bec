// Package transport defines request and response DTOs for approvals.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleOptionData is the request_data payload of a schedule-option
// approval. Either EpisodeID (single slot) or ProgramID+Year (whole
// season) must be set.
type ScheduleOptionData struct {
	EpisodeID *uuid.UUID `json:"episodeId,omitempty"`
	ProgramID *uuid.UUID `json:"programId,omitempty"`
	Year      *int       `json:"year,omitempty"`
	Weekday   *int       `json:"weekday,omitempty" validate:"omitempty,min=0,max=6"`
	TitleStem *string    `json:"titleStem,omitempty" validate:"omitempty,max=200"`
	SlotDate  *time.Time `json:"slotDate,omitempty"`
	SlotTime  *string    `json:"slotTime,omitempty" validate:"omitempty,max=20"`
	Channel   *string    `json:"channel,omitempty" validate:"omitempty,max=100"`
}

// RequestScheduleOptionRequest files a schedule-option escalation.
type RequestScheduleOptionRequest struct {
	ScheduleOptionData
}

// ReviewRequest records a decision on a pending approval.
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"omitempty,max=2000"`
}

// ApprovalResponse is the API shape of one approval.
type ApprovalResponse struct {
	ID             uuid.UUID       `json:"id"`
	ApprovableType string          `json:"approvableType"`
	ApprovableID   *uuid.UUID      `json:"approvableId,omitempty"`
	EpisodeID      *uuid.UUID      `json:"episodeId,omitempty"`
	ProgramID      *uuid.UUID      `json:"programId,omitempty"`
	RequestedBy    uuid.UUID       `json:"requestedBy"`
	Status         string          `json:"status"`
	RequestData    map[string]any  `json:"requestData,omitempty"`
	ReviewedBy     *uuid.UUID      `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes    *string         `json:"reviewNotes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
