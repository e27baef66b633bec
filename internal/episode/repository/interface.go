package repository

import (
	"context"
	"time"

	"studio_production_backend/internal/episode/domain"
	"studio_production_backend/platform/db"

	"github.com/google/uuid"
)

// Program is a television program that owns episodes and a team.
type Program struct {
	ID        uuid.UUID
	Name      string
	ManagerID uuid.UUID
	CreatedAt time.Time
}

// Episode is one produced installment of a program.
type Episode struct {
	ID             uuid.UUID
	ProgramID      uuid.UUID
	EpisodeNumber  int
	Title          string
	AirDate        time.Time
	CurrentStage   domain.Stage
	RundownFileKey *string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StageLog is one audit entry for a stage transition.
type StageLog struct {
	ID         uuid.UUID
	EpisodeID  uuid.UUID
	FromStage  domain.Stage
	ToStage    domain.Stage
	OwnerRole  string
	AssignedTo *uuid.UUID
	Reason     string
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
}

// CreateEpisodeParams contains parameters for creating an episode.
type CreateEpisodeParams struct {
	ProgramID     uuid.UUID
	EpisodeNumber int
	Title         string
	AirDate       time.Time
	CreatedBy     uuid.UUID
}

// StageLogParams describes one stage-transition audit entry.
type StageLogParams struct {
	EpisodeID  uuid.UUID
	FromStage  domain.Stage
	ToStage    domain.Stage
	OwnerRole  string
	AssignedTo *uuid.UUID
	Reason     string
	CreatedBy  uuid.UUID
}

// WorkItemFact identifies an existence check backing the readiness
// evaluation: "does this episode have a work item of this kind in this
// status".
type WorkItemFact string

const (
	FactArrangementApproved  WorkItemFact = "arrangement_approved"
	FactCreativeWorkApproved WorkItemFact = "creative_work_approved"
	FactSoundEditingApproved WorkItemFact = "sound_editing_approved"
	FactEditorWorkApproved   WorkItemFact = "editor_work_approved"
	FactQCApproved           WorkItemFact = "quality_control_approved"
)

// Repository combines all episode repository operations.
type Repository interface {
	CreateProgram(ctx context.Context, name string, managerID uuid.UUID) (Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (Program, error)

	CreateEpisode(ctx context.Context, q db.Querier, params CreateEpisodeParams) (Episode, error)
	GetEpisode(ctx context.Context, id uuid.UUID) (Episode, error)
	GetEpisodeIn(ctx context.Context, q db.Querier, id uuid.UUID) (Episode, error)
	ListEpisodesByProgram(ctx context.Context, programID uuid.UUID) ([]Episode, error)
	CountEpisodesInYear(ctx context.Context, q db.Querier, programID uuid.UUID, year int) (int, error)
	SetRundown(ctx context.Context, id uuid.UUID, fileKey string) error

	// UpdateStageGuarded persists a stage move only when the episode is
	// still at the expected stage; false means the guard lost a race.
	UpdateStageGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to domain.Stage) (bool, error)
	InsertStageLog(ctx context.Context, q db.Querier, params StageLogParams) error
	ListStageLogs(ctx context.Context, episodeID uuid.UUID) ([]StageLog, error)

	// Readiness facts (pure reads).
	HasWorkItemFact(ctx context.Context, episodeID uuid.UUID, fact WorkItemFact) (bool, error)
	DeadlinesAllCompleted(ctx context.Context, episodeID uuid.UUID) (bool, error)
}
