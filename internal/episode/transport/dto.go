package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateProgramRequest contains data for creating a program.
type CreateProgramRequest struct {
	Name string `json:"name" validate:"required,min=1,max=160"`
}

// CreateEpisodeRequest contains data for creating a single episode.
type CreateEpisodeRequest struct {
	ProgramID     uuid.UUID `json:"programId" validate:"required"`
	EpisodeNumber int       `json:"episodeNumber" validate:"required,min=1"`
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	AirDate       time.Time `json:"airDate" validate:"required"`
}

// GenerateYearRequest asks for a full year of weekly episodes.
type GenerateYearRequest struct {
	ProgramID uuid.UUID    `json:"programId" validate:"required"`
	Year      int          `json:"year" validate:"required,min=2000,max=2100"`
	Weekday   time.Weekday `json:"weekday" validate:"min=0,max=6"`
	TitleStem string       `json:"titleStem" validate:"required,min=1,max=160"`
}

// AdvanceStageRequest moves an episode along the pipeline.
type AdvanceStageRequest struct {
	ToStage    string     `json:"toStage" validate:"required"`
	OwnerRole  string     `json:"ownerRole" validate:"required"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	Reason     string     `json:"reason" validate:"required,min=3,max=500"`
}

// SetRundownRequest attaches a rundown file to an episode.
type SetRundownRequest struct {
	FileKey string `json:"fileKey" validate:"required,min=1,max=512"`
}

// EpisodeResponse represents an episode in API responses.
type EpisodeResponse struct {
	ID             uuid.UUID `json:"id"`
	ProgramID      uuid.UUID `json:"programId"`
	EpisodeNumber  int       `json:"episodeNumber"`
	Title          string    `json:"title"`
	AirDate        time.Time `json:"airDate"`
	CurrentStage   string    `json:"currentStage"`
	RundownFileKey *string   `json:"rundownFileKey,omitempty"`
	CreatedBy      uuid.UUID `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StageLogResponse is one stage-transition audit entry.
type StageLogResponse struct {
	ID         uuid.UUID  `json:"id"`
	FromStage  string     `json:"fromStage"`
	ToStage    string     `json:"toStage"`
	OwnerRole  string     `json:"ownerRole"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	Reason     string     `json:"reason"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CriterionResult is one readiness criterion evaluation.
type CriterionResult struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Ready bool   `json:"ready"`
}

// ReadinessResponse is the full readiness evaluation for an episode.
type ReadinessResponse struct {
	EpisodeID uuid.UUID         `json:"episodeId"`
	IsReady   bool              `json:"isReady"`
	Criteria  []CriterionResult `json:"criteria"`
	Missing   []string          `json:"missing"`
}

// GenerateYearResponse reports the outcome of bulk generation.
type GenerateYearResponse struct {
	ProgramID uuid.UUID         `json:"programId"`
	Year      int               `json:"year"`
	Episodes  []EpisodeResponse `json:"episodes"`
}
