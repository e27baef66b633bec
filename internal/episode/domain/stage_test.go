package domain

import "testing"

func TestRankFollowsPipelineOrder(t *testing.T) {
	if Rank(StagePlanning) != 0 {
		t.Error("planning must be the first stage")
	}
	if Rank(StageAired) != len(Stages())-1 {
		t.Error("aired must be the last stage")
	}
	if Rank(Stage("mixing")) != -1 {
		t.Error("unknown stages must rank -1")
	}

	prev := -1
	for _, s := range Stages() {
		r := Rank(s)
		if r <= prev {
			t.Fatalf("stage %s out of order: rank %d after %d", s, r, prev)
		}
		prev = r
	}
}

func TestCanTransitionForward(t *testing.T) {
	cases := []struct {
		from, to Stage
		want     bool
	}{
		{StagePlanning, StageCreativeWork, true},
		// skipping stages forward is allowed
		{StagePlanning, StageEditing, true},
		{StageQualityControl, StageReadyToAir, true},
		{StageReadyToAir, StageAired, true},
		// backward only along revision edges
		{StageQualityControl, StageEditing, true},
		{StageReadyToAir, StageEditing, true},
		{StageEditing, StageCreativeWork, false},
		{StageAired, StageEditing, false},
		{StageSoundEngineering, StagePlanning, false},
		// self moves are not transitions
		{StageEditing, StageEditing, false},
		// unknown stages never transition
		{Stage("mixing"), StageEditing, false},
		{StageEditing, Stage("mixing"), false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsRevision(t *testing.T) {
	if !IsRevision(StageQualityControl, StageEditing) {
		t.Error("QC back to editing is a revision")
	}
	if IsRevision(StagePlanning, StageCreativeWork) {
		t.Error("forward moves are not revisions")
	}
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("quality_control")
	if err != nil || s != StageQualityControl {
		t.Errorf("ParseStage(quality_control) = %v, %v", s, err)
	}
	if _, err := ParseStage("post_production"); err == nil {
		t.Error("expected error for unknown stage")
	}
}
