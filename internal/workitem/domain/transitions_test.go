package domain

import (
	"testing"

	identitydomain "studio_production_backend/internal/identity/domain"
)

func TestLookupArrangementHappyPath(t *testing.T) {
	steps := []struct {
		from   Status
		action Action
		want   Status
	}{
		{StatusDraft, ActionSubmit, StatusSongProposal},
		{StatusSongProposal, ActionApprove, StatusSongApproved},
		{StatusSongApproved, ActionAccept, StatusArrangementInProgress},
		{StatusArrangementInProgress, ActionSubmit, StatusArrangementSubmitted},
		{StatusArrangementSubmitted, ActionApprove, StatusArrangementApproved},
	}

	for _, step := range steps {
		tr, ok := Lookup(TypeMusicArrangement, step.from, step.action)
		if !ok {
			t.Fatalf("Lookup(music_arrangement, %s, %s): no transition", step.from, step.action)
		}
		if tr.To != step.want {
			t.Errorf("Lookup(music_arrangement, %s, %s) = %s, want %s", step.from, step.action, tr.To, step.want)
		}
	}
}

func TestLookupRejectsIllegalEdges(t *testing.T) {
	cases := []struct {
		typ    Type
		from   Status
		action Action
	}{
		// approve skipping the proposal review
		{TypeMusicArrangement, StatusDraft, ActionApprove},
		// double approve
		{TypeMusicArrangement, StatusSongApproved, ActionApprove},
		// creative work cannot be approved once rejected; it has to be revised first
		{TypeCreativeWork, StatusRejected, ActionApprove},
		// recordings are reviewed only after completion
		{TypeSoundRecording, StatusDraft, ActionReview},
		// QC is single-shot
		{TypeQualityControl, StatusApproved, ActionApprove},
	}

	for _, tc := range cases {
		if _, ok := Lookup(tc.typ, tc.from, tc.action); ok {
			t.Errorf("Lookup(%s, %s, %s): expected no transition", tc.typ, tc.from, tc.action)
		}
	}
}

func TestLookupUnknownType(t *testing.T) {
	if _, ok := Lookup(Type("coffee_run"), StatusDraft, ActionSubmit); ok {
		t.Fatal("expected no transition for unknown type")
	}
}

// KnownAction separates "legal verb, wrong state" from "verb does not
// exist for this variant". The first maps to a conflict, the second to a
// validation error.
func TestKnownAction(t *testing.T) {
	if !KnownAction(TypeMusicArrangement, ActionApprove) {
		t.Error("approve should be known for music arrangements")
	}
	if KnownAction(TypeMusicArrangement, ActionReview) {
		t.Error("review is not a music arrangement verb")
	}
	if KnownAction(TypePromotionWork, ActionApprove) {
		t.Error("approve is not a promotion work verb")
	}
	if !KnownAction(TypeQualityControl, ActionRequestRevision) {
		t.Error("request_revision should be known for quality control")
	}
}

func TestInitialStatus(t *testing.T) {
	cases := map[Type]Status{
		TypeMusicArrangement:  StatusDraft,
		TypeCreativeWork:      StatusSubmitted,
		TypeSoundRecording:    StatusDraft,
		TypeSoundEditing:      StatusDraft,
		TypeEditorWork:        StatusDraft,
		TypeProductionSupport: StatusPending,
		TypePromotionWork:     StatusPending,
		TypeQualityControl:    StatusPending,
	}
	for typ, want := range cases {
		if got := InitialStatus(typ); got != want {
			t.Errorf("InitialStatus(%s) = %s, want %s", typ, got, want)
		}
	}
}

func TestEveryTransitionTargetsDifferentStatus(t *testing.T) {
	for typ, byStatus := range tables {
		for from, byAction := range byStatus {
			for action, tr := range byAction {
				if tr.To == from {
					t.Errorf("%s: %s/%s is a self loop", typ, from, action)
				}
				if tr.To == "" {
					t.Errorf("%s: %s/%s has empty target", typ, from, action)
				}
			}
		}
	}
}

func TestNeedsHelpOnEntry(t *testing.T) {
	if !NeedsHelpOnEntry(StatusSongRejected) || !NeedsHelpOnEntry(StatusArrangementRejected) {
		t.Error("rejection states must open the item to helpers")
	}
	if NeedsHelpOnEntry(StatusSongApproved) {
		t.Error("approval must not open the item to helpers")
	}
}

func TestRejectedArrangementAdmitsSoundEngineerHelpers(t *testing.T) {
	tr, ok := Lookup(TypeMusicArrangement, StatusSongRejected, ActionSubmit)
	if !ok {
		t.Fatal("resubmit after rejection must be legal")
	}
	if len(tr.Req.HelpersWhenOpen) != 1 || tr.Req.HelpersWhenOpen[0] != identitydomain.RoleSoundEngineer {
		t.Errorf("unexpected helper roles: %v", tr.Req.HelpersWhenOpen)
	}
	if !tr.Req.Creator {
		t.Error("the creator must still be allowed to resubmit")
	}
}

func TestCreativeApproveRequiresFullPackage(t *testing.T) {
	tr, ok := Lookup(TypeCreativeWork, StatusSubmitted, ActionApprove)
	if !ok {
		t.Fatal("creative approve must be legal from submitted")
	}

	want := map[Precondition]bool{
		PrecondScript:           false,
		PrecondStoryboard:       false,
		PrecondBudget:           false,
		PrecondShootingSchedule: false,
		PrecondVocalSchedule:    false,
	}
	for _, p := range tr.Preconditions {
		if _, ok := want[p]; !ok {
			t.Errorf("unexpected precondition %s", p)
			continue
		}
		want[p] = true
	}
	for p, seen := range want {
		if !seen {
			t.Errorf("missing precondition %s", p)
		}
	}
}
