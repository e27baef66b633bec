// Package domain defines the episode production stage machine.
package domain

import "fmt"

// Stage labels an episode's single current position in the pipeline.
type Stage string

const (
	// StagePlanning is the initial stage of every episode.
	StagePlanning Stage = "planning"
	// StageCreativeWork indicates script and concept work is underway.
	StageCreativeWork Stage = "creative_work"
	// StageProductionPlanning indicates the creative work was approved and
	// downstream departments are being mobilized.
	StageProductionPlanning Stage = "production_planning"
	// StageShootingRecording indicates shooting or recording is underway.
	StageShootingRecording Stage = "shooting_recording"
	// StageSoundEngineering indicates recorded material is with sound.
	StageSoundEngineering Stage = "sound_engineering"
	// StageEditing indicates the episode is being cut.
	StageEditing Stage = "editing"
	// StageQualityControl indicates the cut awaits QC review.
	StageQualityControl Stage = "quality_control"
	// StageReadyToAir indicates QC passed and the episode awaits broadcast.
	StageReadyToAir Stage = "ready_to_air"
	// StageAired is the terminal stage.
	StageAired Stage = "aired"
)

// pipelineOrder fixes the forward progression of the pipeline.
var pipelineOrder = []Stage{
	StagePlanning,
	StageCreativeWork,
	StageProductionPlanning,
	StageShootingRecording,
	StageSoundEngineering,
	StageEditing,
	StageQualityControl,
	StageReadyToAir,
	StageAired,
}

// revisionEdges are the only permitted backward moves: a downstream
// reviewer rejecting work returns the episode to editing.
var revisionEdges = map[Stage]map[Stage]struct{}{
	StageQualityControl: {StageEditing: {}},
	StageReadyToAir:     {StageEditing: {}},
}

// Rank returns the stage's position in the pipeline, -1 for unknown stages.
func Rank(s Stage) int {
	for i, stage := range pipelineOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return Rank(s) >= 0
}

// CanTransition reports whether moving from one stage to another is legal:
// any forward move along the pipeline, or an explicit revision edge.
func CanTransition(from, to Stage) bool {
	fromRank, toRank := Rank(from), Rank(to)
	if fromRank < 0 || toRank < 0 {
		return false
	}
	if toRank > fromRank {
		return true
	}
	_, ok := revisionEdges[from][to]
	return ok
}

// IsRevision reports whether the move is an explicit backward edge.
func IsRevision(from, to Stage) bool {
	_, ok := revisionEdges[from][to]
	return ok
}

// ParseStage validates a raw stage string.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// Stages returns the pipeline order, for display and iteration.
func Stages() []Stage {
	out := make([]Stage, len(pipelineOrder))
	copy(out, pipelineOrder)
	return out
}
