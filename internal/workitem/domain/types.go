// Package domain defines the work-item vocabulary: variant types,
// statuses, actions, and the per-variant transition tables.
package domain

// Type identifies a work-item variant.
type Type string

const (
	TypeMusicArrangement  Type = "music_arrangement"
	TypeCreativeWork      Type = "creative_work"
	TypeSoundRecording    Type = "sound_recording"
	TypeSoundEditing      Type = "sound_editing"
	TypeEditorWork        Type = "editor_work"
	TypeProductionSupport Type = "production_support_work"
	TypePromotionWork     Type = "promotion_work"
	TypeQualityControl    Type = "quality_control"
	TypeBudgetRequest     Type = "budget_request"
)

// Status is a work-item lifecycle state. Each variant uses its own
// subset; the transition tables are the source of truth for which.
type Status string

const (
	StatusDraft Status = "draft"

	// music arrangement
	StatusSongProposal          Status = "song_proposal"
	StatusSongApproved          Status = "song_approved"
	StatusSongRejected          Status = "song_rejected"
	StatusArrangementInProgress Status = "arrangement_in_progress"
	StatusArrangementSubmitted  Status = "arrangement_submitted"
	StatusArrangementApproved   Status = "arrangement_approved"
	StatusArrangementRejected   Status = "arrangement_rejected"

	// review-style variants
	StatusSubmitted      Status = "submitted"
	StatusRevised        Status = "revised"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusRevisionNeeded Status = "revision_needed"

	// recording and task variants
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusReviewed   Status = "reviewed"
)

// Action is a transition request verb.
type Action string

const (
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionAccept          Action = "accept"
	ActionRevise          Action = "revise"
	ActionStart           Action = "start"
	ActionComplete        Action = "complete"
	ActionReview          Action = "review"
	ActionRequestRevision Action = "request_revision"
	ActionAssign          Action = "assign"
)

// Valid reports whether the type names a known variant.
func (t Type) Valid() bool {
	switch t {
	case TypeMusicArrangement, TypeCreativeWork, TypeSoundRecording,
		TypeSoundEditing, TypeEditorWork, TypeProductionSupport,
		TypePromotionWork, TypeQualityControl:
		return true
	}
	return false
}
