package repository

import (
	"time"

	"github.com/google/uuid"

	"studio_production_backend/internal/workitem/domain"
)

// ReviewMeta is the shared audit portion of every work-item variant.
type ReviewMeta struct {
	ReviewedBy  *uuid.UUID
	ReviewedAt  *time.Time
	ReviewNotes *string
}

// MusicArrangement covers the song proposal and arrangement lifecycle.
type MusicArrangement struct {
	ID         uuid.UUID
	EpisodeID  uuid.UUID
	SongTitle  string
	SongNotes  *string
	FileKey    *string
	Status     domain.Status
	NeedsHelp  bool
	AssignedTo *uuid.UUID
	CreatedBy  uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreativeWork is the episode's creative package under producer review.
type CreativeWork struct {
	ID                     uuid.UUID
	EpisodeID              uuid.UUID
	Status                 domain.Status
	ScriptURL              *string
	StoryboardURL          *string
	TotalBudget            int64
	ShootingSchedule       *time.Time
	VocalRecordingSchedule *time.Time
	CreatedBy              uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoundRecording is one engineer's recording task, optionally tied to
// an approved arrangement.
type SoundRecording struct {
	ID                 uuid.UUID
	EpisodeID          uuid.UUID
	MusicArrangementID *uuid.UUID
	AssignedTo         *uuid.UUID
	FileKey            *string
	Status             domain.Status
	CreatedBy          uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoundEditing is the post-recording editing task.
type SoundEditing struct {
	ID               uuid.UUID
	EpisodeID        uuid.UUID
	SoundRecordingID *uuid.UUID
	AssignedTo       *uuid.UUID
	FileKey          *string
	Status           domain.Status
	CreatedBy        uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EditorWork is the video edit deliverable.
type EditorWork struct {
	ID         uuid.UUID
	EpisodeID  uuid.UUID
	AssignedTo *uuid.UUID
	FileKey    *string
	Status     domain.Status
	CreatedBy  uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupportWork is a production-support or promotion task; the Kind field
// selects the table.
type SupportWork struct {
	ID          uuid.UUID
	EpisodeID   uuid.UUID
	Kind        domain.Type
	Description string
	AssignedTo  *uuid.UUID
	Status      domain.Status
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QualityControl is the final review gate before ready-to-air.
type QualityControl struct {
	ID           uuid.UUID
	EpisodeID    uuid.UUID
	EditorWorkID *uuid.UUID
	Notes        *string
	Status       domain.Status
	CreatedBy    uuid.UUID
	ReviewMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusUpdate is the guarded write applied by every transition. Nil
// optional fields leave the column untouched; ClearAssignee wins over
// AssignedTo.
type StatusUpdate struct {
	ID            uuid.UUID
	From          domain.Status
	To            domain.Status
	ReviewedBy    *uuid.UUID
	ReviewNotes   *string
	NeedsHelp     *bool
	FileKey       *string
	AssignedTo    *uuid.UUID
	ClearAssignee bool
}
