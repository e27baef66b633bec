// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"studio_production_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions.
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Episode Domain Events
// =============================================================================

// EpisodeCreated is published when a new episode enters the pipeline.
type EpisodeCreated struct {
	BaseEvent
	EpisodeID uuid.UUID `json:"episodeId"`
	ProgramID uuid.UUID `json:"programId"`
	Title     string    `json:"title"`
	AirDate   time.Time `json:"airDate"`
	CreatedBy uuid.UUID `json:"createdBy"`
}

func (e EpisodeCreated) EventName() string { return "episode.created" }

// EpisodeStageChanged is published after a stage transition commits.
type EpisodeStageChanged struct {
	BaseEvent
	EpisodeID uuid.UUID `json:"episodeId"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	Reason    string    `json:"reason"`
}

func (e EpisodeStageChanged) EventName() string { return "episode.stage_changed" }

// =============================================================================
// Deadline Domain Events
// =============================================================================

// DeadlineDue describes one deadline for reminder scheduling.
type DeadlineDue struct {
	DeadlineID uuid.UUID `json:"deadlineId"`
	Role       string    `json:"role"`
	Date       time.Time `json:"date"`
}

// DeadlinesGenerated is published when an episode's deadlines are created.
type DeadlinesGenerated struct {
	BaseEvent
	EpisodeID uuid.UUID     `json:"episodeId"`
	Deadlines []DeadlineDue `json:"deadlines"`
}

func (e DeadlinesGenerated) EventName() string { return "deadline.generated" }

// DeadlineRescheduled is published when a deadline date is edited.
type DeadlineRescheduled struct {
	BaseEvent
	DeadlineID uuid.UUID `json:"deadlineId"`
	EpisodeID  uuid.UUID `json:"episodeId"`
	Role       string    `json:"role"`
	NewDate    time.Time `json:"newDate"`
}

func (e DeadlineRescheduled) EventName() string { return "deadline.rescheduled" }
