package domain

import identitydomain "studio_production_backend/internal/identity/domain"

// Precondition names a piece of data that must be present before a
// transition may commit. The service evaluates each key against the
// item and the request payload.
type Precondition string

const (
	PrecondFile             Precondition = "file"
	PrecondScript           Precondition = "script"
	PrecondStoryboard       Precondition = "storyboard"
	PrecondBudget           Precondition = "total_budget"
	PrecondShootingSchedule Precondition = "shooting_schedule"
	PrecondVocalSchedule    Precondition = "vocal_recording_schedule"
	PrecondAssignee         Precondition = "assigned_to"
)

// Requirement is the authorization predicate for a transition. The
// actor passes if ANY enabled clause holds: item creator (or current
// assignee), an active team membership in one of Roles, producer
// ownership of the resolved team, or the manager-program global role.
// HelpersWhenOpen additionally admits the listed roles while the item's
// needs_help flag is set (the multi-claimant state after a rejection).
type Requirement struct {
	Creator         bool
	Roles           []identitydomain.RoleTag
	Ownership       bool
	Manager         bool
	HelpersWhenOpen []identitydomain.RoleTag
}

// Transition is one legal edge of a variant's status machine.
type Transition struct {
	To            Status
	Req           Requirement
	Preconditions []Precondition
}

var (
	reqCreator  = Requirement{Creator: true}
	reqProducer = Requirement{Ownership: true, Manager: true}
)

func reqCreatorOrHelper(helpers ...identitydomain.RoleTag) Requirement {
	return Requirement{Creator: true, HelpersWhenOpen: helpers}
}

func reqRole(roles ...identitydomain.RoleTag) Requirement {
	return Requirement{Roles: roles}
}

// tables holds every variant's status machine. Anything absent here is
// not a legal transition.
var tables = map[Type]map[Status]map[Action]Transition{
	TypeMusicArrangement: {
		StatusDraft: {
			ActionSubmit: {To: StatusSongProposal, Req: reqCreator},
		},
		StatusSongProposal: {
			ActionApprove: {To: StatusSongApproved, Req: reqProducer},
			ActionReject:  {To: StatusSongRejected, Req: reqProducer},
		},
		StatusSongRejected: {
			ActionSubmit: {To: StatusSongProposal, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer)},
		},
		StatusSongApproved: {
			ActionAccept: {To: StatusArrangementInProgress, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer)},
		},
		StatusArrangementInProgress: {
			ActionSubmit: {To: StatusArrangementSubmitted, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer), Preconditions: []Precondition{PrecondFile}},
		},
		StatusArrangementSubmitted: {
			ActionApprove: {To: StatusArrangementApproved, Req: reqProducer},
			ActionReject:  {To: StatusArrangementRejected, Req: reqProducer},
		},
		StatusArrangementRejected: {
			ActionSubmit: {To: StatusArrangementSubmitted, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer), Preconditions: []Precondition{PrecondFile}},
		},
	},

	TypeCreativeWork: {
		StatusSubmitted: {
			ActionApprove: {To: StatusApproved, Req: reqProducer, Preconditions: []Precondition{
				PrecondScript, PrecondStoryboard, PrecondBudget, PrecondShootingSchedule, PrecondVocalSchedule,
			}},
			ActionReject: {To: StatusRejected, Req: reqProducer},
		},
		StatusRejected: {
			ActionRevise: {To: StatusRevised, Req: reqCreator},
		},
		StatusRevised: {
			ActionSubmit: {To: StatusSubmitted, Req: reqCreator},
		},
	},

	TypeSoundRecording: {
		StatusDraft: {
			ActionStart: {To: StatusInProgress, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer)},
		},
		StatusInProgress: {
			ActionComplete: {To: StatusCompleted, Req: reqCreatorOrHelper(identitydomain.RoleSoundEngineer), Preconditions: []Precondition{PrecondFile}},
		},
		StatusCompleted: {
			ActionReview: {To: StatusReviewed, Req: reqProducer},
		},
	},

	TypeSoundEditing: {
		StatusDraft: {
			ActionSubmit: {To: StatusSubmitted, Req: reqRole(identitydomain.RoleSoundEngineer), Preconditions: []Precondition{PrecondFile}},
		},
		StatusSubmitted: {
			ActionApprove:         {To: StatusApproved, Req: reqProducer},
			ActionRequestRevision: {To: StatusRevisionNeeded, Req: reqProducer},
		},
		StatusRevisionNeeded: {
			ActionSubmit: {To: StatusSubmitted, Req: reqRole(identitydomain.RoleSoundEngineer), Preconditions: []Precondition{PrecondFile}},
		},
	},

	TypeEditorWork: {
		StatusDraft: {
			ActionSubmit: {To: StatusSubmitted, Req: reqCreator, Preconditions: []Precondition{PrecondFile}},
		},
		StatusSubmitted: {
			ActionApprove:         {To: StatusApproved, Req: reqProducer},
			ActionRequestRevision: {To: StatusRevisionNeeded, Req: reqProducer},
		},
		StatusRevisionNeeded: {
			ActionSubmit: {To: StatusSubmitted, Req: reqCreator, Preconditions: []Precondition{PrecondFile}},
		},
	},

	TypeProductionSupport: {
		StatusPending: {
			ActionAssign: {To: StatusInProgress, Req: reqProducer, Preconditions: []Precondition{PrecondAssignee}},
		},
		StatusInProgress: {
			ActionComplete: {To: StatusCompleted, Req: reqCreatorOrHelper(identitydomain.RoleProductionSupport)},
		},
	},

	TypePromotionWork: {
		StatusPending: {
			ActionStart: {To: StatusInProgress, Req: reqRole(identitydomain.RolePromotion)},
		},
		StatusInProgress: {
			ActionComplete: {To: StatusCompleted, Req: reqRole(identitydomain.RolePromotion)},
		},
	},

	TypeQualityControl: {
		StatusPending: {
			ActionApprove:         {To: StatusApproved, Req: reqRole(identitydomain.RoleQualityControl)},
			ActionRequestRevision: {To: StatusRevisionNeeded, Req: reqRole(identitydomain.RoleQualityControl)},
		},
	},
}

// Lookup resolves the transition for (type, current status, action).
func Lookup(t Type, from Status, action Action) (Transition, bool) {
	byStatus, ok := tables[t]
	if !ok {
		return Transition{}, false
	}
	byAction, ok := byStatus[from]
	if !ok {
		return Transition{}, false
	}
	tr, ok := byAction[action]
	return tr, ok
}

// KnownAction reports whether the action is legal from ANY status of
// the variant. Distinguishes wrong-state errors from unknown verbs.
func KnownAction(t Type, action Action) bool {
	for _, byAction := range tables[t] {
		if _, ok := byAction[action]; ok {
			return true
		}
	}
	return false
}

// InitialStatus returns the status a freshly created item of the
// variant carries.
func InitialStatus(t Type) Status {
	switch t {
	case TypeMusicArrangement, TypeSoundRecording, TypeSoundEditing, TypeEditorWork:
		return StatusDraft
	case TypeCreativeWork:
		return StatusSubmitted
	case TypeProductionSupport, TypePromotionWork, TypeQualityControl:
		return StatusPending
	}
	return StatusDraft
}

// NeedsHelpOnEntry reports whether entering the status opens the item
// to helper claims (rejection states on arrangements).
func NeedsHelpOnEntry(status Status) bool {
	return status == StatusSongRejected || status == StatusArrangementRejected
}
