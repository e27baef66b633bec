package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/platform/db"
)

// cascadeExistsQueries maps each cascade target to the existence check
// for its idempotency key (episode, optional precursor, target type).
// Variants whose table has no precursor column key on the episode only.
var cascadeExistsQueries = map[domain.Type]string{
	domain.TypeSoundRecording: `
		SELECT EXISTS (
			SELECT 1 FROM sound_recordings
			WHERE episode_id = $1 AND music_arrangement_id IS NOT DISTINCT FROM $2
		)`,
	domain.TypeSoundEditing: `
		SELECT EXISTS (
			SELECT 1 FROM sound_editings
			WHERE episode_id = $1 AND sound_recording_id IS NOT DISTINCT FROM $2
		)`,
	domain.TypeQualityControl: `
		SELECT EXISTS (
			SELECT 1 FROM quality_controls
			WHERE episode_id = $1 AND editor_work_id IS NOT DISTINCT FROM $2
		)`,
	domain.TypePromotionWork: `
		SELECT EXISTS (
			SELECT 1 FROM promotion_works WHERE episode_id = $1
		)`,
	domain.TypeProductionSupport: `
		SELECT EXISTS (
			SELECT 1 FROM production_support_works WHERE episode_id = $1
		)`,
	domain.TypeBudgetRequest: `
		SELECT EXISTS (
			SELECT 1 FROM approvals
			WHERE approvable_type = 'budget_request' AND episode_id = $1
		)`,
}

// CascadeExists is the central idempotency check every cascade creation
// runs before inserting. It executes inside the same transaction as the
// guarded status update, so the check and the create are evaluated
// against a consistent snapshot.
func (r *Repo) CascadeExists(ctx context.Context, q db.Querier, episodeID uuid.UUID, precursorID *uuid.UUID, target domain.Type) (bool, error) {
	query, ok := cascadeExistsQueries[target]
	if !ok {
		return false, fmt.Errorf("no idempotency check for cascade target %s", target)
	}

	var exists bool
	var err error
	switch target {
	case domain.TypeProductionSupport, domain.TypePromotionWork, domain.TypeBudgetRequest:
		err = q.QueryRow(ctx, query, episodeID).Scan(&exists)
	default:
		err = q.QueryRow(ctx, query, episodeID, precursorID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("cascade existence check (%s): %w", target, err)
	}
	return exists, nil
}
