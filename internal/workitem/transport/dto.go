// Package transport defines request and response DTOs for work items.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateArrangementRequest opens a new song proposal in draft.
type CreateArrangementRequest struct {
	EpisodeID uuid.UUID `json:"episodeId" validate:"required"`
	SongTitle string    `json:"songTitle" validate:"required,min=1,max=300"`
	SongNotes *string   `json:"songNotes" validate:"omitempty,max=2000"`
}

// CreateCreativeRequest submits the episode's creative package.
type CreateCreativeRequest struct {
	EpisodeID              uuid.UUID  `json:"episodeId" validate:"required"`
	ScriptURL              *string    `json:"scriptUrl" validate:"omitempty,max=1000"`
	StoryboardURL          *string    `json:"storyboardUrl" validate:"omitempty,max=1000"`
	TotalBudget            int64      `json:"totalBudget" validate:"min=0"`
	ShootingSchedule       *time.Time `json:"shootingSchedule"`
	VocalRecordingSchedule *time.Time `json:"vocalRecordingSchedule"`
}

// UpdateCreativeRequest amends an editable creative package.
type UpdateCreativeRequest struct {
	ScriptURL              *string    `json:"scriptUrl" validate:"omitempty,max=1000"`
	StoryboardURL          *string    `json:"storyboardUrl" validate:"omitempty,max=1000"`
	TotalBudget            int64      `json:"totalBudget" validate:"min=0"`
	ShootingSchedule       *time.Time `json:"shootingSchedule"`
	VocalRecordingSchedule *time.Time `json:"vocalRecordingSchedule"`
}

// CreateEditorWorkRequest opens a video edit deliverable.
type CreateEditorWorkRequest struct {
	EpisodeID uuid.UUID `json:"episodeId" validate:"required"`
}

// TransitionRequest asks for one status transition on a work item.
type TransitionRequest struct {
	Action     string     `json:"action" validate:"required"`
	Notes      string     `json:"notes" validate:"omitempty,max=2000"`
	FileKey    string     `json:"fileKey" validate:"omitempty,max=500"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
}

// CreatedItem summarizes one downstream work item a cascade created.
type CreatedItem struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// TransitionResult reports the committed transition and its cascade.
type TransitionResult struct {
	ID           uuid.UUID     `json:"id"`
	Type         string        `json:"type"`
	Status       string        `json:"status"`
	CreatedItems []CreatedItem `json:"createdItems,omitempty"`
}

// ArrangementResponse is the API shape of a music arrangement.
type ArrangementResponse struct {
	ID          uuid.UUID  `json:"id"`
	EpisodeID   uuid.UUID  `json:"episodeId"`
	SongTitle   string     `json:"songTitle"`
	SongNotes   *string    `json:"songNotes,omitempty"`
	FileKey     *string    `json:"fileKey,omitempty"`
	Status      string     `json:"status"`
	NeedsHelp   bool       `json:"needsHelp"`
	AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	ReviewedBy  *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes *string    `json:"reviewNotes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreativeResponse is the API shape of a creative work.
type CreativeResponse struct {
	ID                     uuid.UUID  `json:"id"`
	EpisodeID              uuid.UUID  `json:"episodeId"`
	Status                 string     `json:"status"`
	ScriptURL              *string    `json:"scriptUrl,omitempty"`
	StoryboardURL          *string    `json:"storyboardUrl,omitempty"`
	TotalBudget            int64      `json:"totalBudget"`
	ShootingSchedule       *time.Time `json:"shootingSchedule,omitempty"`
	VocalRecordingSchedule *time.Time `json:"vocalRecordingSchedule,omitempty"`
	CreatedBy              uuid.UUID  `json:"createdBy"`
	ReviewedBy             *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewedAt             *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes            *string    `json:"reviewNotes,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
}

// RecordingResponse is the API shape of a sound recording.
type RecordingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	EpisodeID          uuid.UUID  `json:"episodeId"`
	MusicArrangementID *uuid.UUID `json:"musicArrangementId,omitempty"`
	AssignedTo         *uuid.UUID `json:"assignedTo,omitempty"`
	FileKey            *string    `json:"fileKey,omitempty"`
	Status             string     `json:"status"`
	CreatedBy          uuid.UUID  `json:"createdBy"`
	ReviewedBy         *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// EditingResponse is the API shape of a sound editing task.
type EditingResponse struct {
	ID               uuid.UUID  `json:"id"`
	EpisodeID        uuid.UUID  `json:"episodeId"`
	SoundRecordingID *uuid.UUID `json:"soundRecordingId,omitempty"`
	AssignedTo       *uuid.UUID `json:"assignedTo,omitempty"`
	FileKey          *string    `json:"fileKey,omitempty"`
	Status           string     `json:"status"`
	CreatedBy        uuid.UUID  `json:"createdBy"`
	ReviewedBy       *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewNotes      *string    `json:"reviewNotes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// EditorWorkResponse is the API shape of an editor work.
type EditorWorkResponse struct {
	ID          uuid.UUID  `json:"id"`
	EpisodeID   uuid.UUID  `json:"episodeId"`
	AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
	FileKey     *string    `json:"fileKey,omitempty"`
	Status      string     `json:"status"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	ReviewedBy  *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewNotes *string    `json:"reviewNotes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// SupportResponse is the API shape of a support or promotion task.
type SupportResponse struct {
	ID          uuid.UUID  `json:"id"`
	EpisodeID   uuid.UUID  `json:"episodeId"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// QCResponse is the API shape of a quality control gate.
type QCResponse struct {
	ID           uuid.UUID  `json:"id"`
	EpisodeID    uuid.UUID  `json:"episodeId"`
	EditorWorkID *uuid.UUID `json:"editorWorkId,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Status       string     `json:"status"`
	ReviewedBy   *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewNotes  *string    `json:"reviewNotes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// PendingWork groups the items awaiting an actor's attention.
type PendingWork struct {
	Arrangements []ArrangementResponse `json:"arrangements"`
	Creative     []CreativeResponse    `json:"creativeWorks"`
	Recordings   []RecordingResponse   `json:"soundRecordings"`
	Editings     []EditingResponse     `json:"soundEditings"`
	EditorWorks  []EditorWorkResponse  `json:"editorWorks"`
	Support      []SupportResponse     `json:"supportWorks"`
	Promotion    []SupportResponse     `json:"promotionWorks"`
	QC           []QCResponse          `json:"qualityControls"`
}

// EpisodeWork groups every work item attached to one episode.
type EpisodeWork struct {
	Arrangements []ArrangementResponse `json:"arrangements"`
	Creative     []CreativeResponse    `json:"creativeWorks"`
	Recordings   []RecordingResponse   `json:"soundRecordings"`
	Editings     []EditingResponse     `json:"soundEditings"`
	EditorWorks  []EditorWorkResponse  `json:"editorWorks"`
	Support      []SupportResponse     `json:"supportWorks"`
	Promotion    []SupportResponse     `json:"promotionWorks"`
	QC           []QCResponse          `json:"qualityControls"`
}
