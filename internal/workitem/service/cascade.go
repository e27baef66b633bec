package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	episodedomain "studio_production_backend/internal/episode/domain"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/internal/workitem/repository"
	"studio_production_backend/platform/db"
)

// createdRef identifies one downstream item a cascade created.
type createdRef struct {
	typ domain.Type
	id  uuid.UUID
}

// pendingNote is a notification computed during the cascade and
// dispatched only after the transaction commits.
type pendingNote struct {
	userIDs []uuid.UUID
	ntype   string
	title   string
	message string
	data    map[string]any
}

// cascadeOutcome collects everything a cascade produced.
type cascadeOutcome struct {
	episodeID uuid.UUID
	created   []createdRef
	notes     []pendingNote
}

func (o *cascadeOutcome) notify(userIDs []uuid.UUID, ntype, title, message string, data map[string]any) {
	if len(userIDs) == 0 {
		return
	}
	o.notes = append(o.notes, pendingNote{userIDs: userIDs, ntype: ntype, title: title, message: message, data: data})
}

// runCascade applies the deterministic rule for the committed
// transition. Creations and stage moves run inside the transaction;
// notifications are deferred to dispatch after commit.
func (s *Service) runCascade(ctx context.Context, q db.Querier, typ domain.Type, view itemView, creative *repository.CreativeWork, to domain.Status, actorID uuid.UUID, notes string) (cascadeOutcome, error) {
	out := cascadeOutcome{episodeID: view.episodeID}

	var err error
	switch typ {
	case domain.TypeMusicArrangement:
		err = s.cascadeArrangement(ctx, q, view, to, actorID, notes, &out)
	case domain.TypeCreativeWork:
		err = s.cascadeCreative(ctx, q, view, creative, to, actorID, notes, &out)
	case domain.TypeSoundRecording:
		err = s.cascadeRecording(ctx, q, view, to, actorID, &out)
	case domain.TypeSoundEditing:
		err = s.cascadeEditing(ctx, q, view, to, actorID, notes, &out)
	case domain.TypeEditorWork:
		err = s.cascadeEditorWork(ctx, q, view, to, actorID, notes, &out)
	case domain.TypeQualityControl:
		err = s.cascadeQC(ctx, q, view, to, actorID, notes, &out)
	}
	return out, err
}

func (s *Service) cascadeArrangement(ctx context.Context, q db.Querier, view itemView, to domain.Status, actorID uuid.UUID, notes string, out *cascadeOutcome) error {
	switch to {
	case domain.StatusSongApproved:
		out.notify([]uuid.UUID{view.createdBy}, "song_approved", "Song proposal approved",
			"Your song proposal was approved; you can start the arrangement.",
			map[string]any{"musicArrangementId": view.id})

	case domain.StatusArrangementApproved:
		exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, &view.id, domain.TypeSoundRecording)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		engineers, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleSoundEngineer)
		if err != nil {
			return err
		}
		arrangementID := view.id
		for _, engineer := range engineers {
			assignee := engineer
			rec, err := s.repo.CreateRecordingIn(ctx, q, repository.CreateRecordingParams{
				EpisodeID:          view.episodeID,
				MusicArrangementID: &arrangementID,
				AssignedTo:         &assignee,
				CreatedBy:          actorID,
			})
			if err != nil {
				return err
			}
			out.created = append(out.created, createdRef{typ: domain.TypeSoundRecording, id: rec.ID})
			out.notify([]uuid.UUID{engineer}, "sound_recording_assigned", "Recording task created",
				"An approved arrangement is ready for recording.",
				map[string]any{"soundRecordingId": rec.ID, "musicArrangementId": view.id})
		}
		out.notify([]uuid.UUID{view.createdBy}, "arrangement_approved", "Arrangement approved",
			"Your arrangement was approved.", map[string]any{"musicArrangementId": view.id})

	case domain.StatusSongRejected, domain.StatusArrangementRejected:
		s.notifyRejection(ctx, view, to, notes, out)
	}
	return nil
}

// notifyRejection tells the creator why, and opens the item to every
// active sound engineer in the resolved team.
func (s *Service) notifyRejection(ctx context.Context, view itemView, to domain.Status, notes string, out *cascadeOutcome) {
	message := "Your submission needs rework."
	if notes != "" {
		message = fmt.Sprintf("Your submission needs rework: %s", notes)
	}
	out.notify([]uuid.UUID{view.createdBy}, string(to), "Submission rejected", message,
		map[string]any{"musicArrangementId": view.id})

	engineers, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleSoundEngineer)
	if err != nil {
		s.log.Warn("helper fan-out skipped", "episode", view.episodeID, "error", err)
		return
	}
	out.notify(engineers, "help_needed", "Assistance requested",
		"A rejected item is open for any sound engineer to pick up.",
		map[string]any{"musicArrangementId": view.id})
}

func (s *Service) cascadeCreative(ctx context.Context, q db.Querier, view itemView, creative *repository.CreativeWork, to domain.Status, actorID uuid.UUID, notes string, out *cascadeOutcome) error {
	switch to {
	case domain.StatusApproved:
		if creative == nil {
			return fmt.Errorf("creative cascade without loaded creative work %s", view.id)
		}

		if creative.TotalBudget > 0 {
			exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, nil, domain.TypeBudgetRequest)
			if err != nil {
				return err
			}
			if !exists {
				if err := s.budgets.RequestBudgetIn(ctx, q, view.episodeID, creative.TotalBudget, actorID); err != nil {
					return err
				}
			}
		}

		if err := s.createSupportOnce(ctx, q, view, domain.TypePromotionWork,
			"Episode promotion", identitydomain.RolePromotion, actorID, out); err != nil {
			return err
		}
		if err := s.createSupportOnce(ctx, q, view, domain.TypeProductionSupport,
			"Production support for shooting", identitydomain.RoleProductionSupport, actorID, out); err != nil {
			return err
		}

		if creative.VocalRecordingSchedule != nil {
			exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, nil, domain.TypeSoundRecording)
			if err != nil {
				return err
			}
			if !exists {
				rec, err := s.repo.CreateRecordingIn(ctx, q, repository.CreateRecordingParams{
					EpisodeID: view.episodeID,
					CreatedBy: actorID,
				})
				if err != nil {
					return err
				}
				out.created = append(out.created, createdRef{typ: domain.TypeSoundRecording, id: rec.ID})
				engineers, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleSoundEngineer)
				if err != nil {
					return err
				}
				out.notify(engineers, "vocal_recording_scheduled", "Vocal recording task created",
					"The approved creative package schedules a vocal recording.",
					map[string]any{"soundRecordingId": rec.ID})
			}
		}

		if err := s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageProductionPlanning, string(identitydomain.RoleProducer),
			"creative work approved", actorID); err != nil {
			return err
		}
		out.notify([]uuid.UUID{view.createdBy}, "creative_approved", "Creative work approved",
			"The creative package was approved; production planning begins.",
			map[string]any{"creativeWorkId": view.id})

	case domain.StatusRejected:
		message := "The creative package needs rework."
		if notes != "" {
			message = fmt.Sprintf("The creative package needs rework: %s", notes)
		}
		out.notify([]uuid.UUID{view.createdBy}, "creative_rejected", "Creative work rejected", message,
			map[string]any{"creativeWorkId": view.id})
	}
	return nil
}

func (s *Service) createSupportOnce(ctx context.Context, q db.Querier, view itemView, kind domain.Type, description string, role identitydomain.RoleTag, actorID uuid.UUID, out *cascadeOutcome) error {
	exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, nil, kind)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	w, err := s.repo.CreateSupportIn(ctx, q, kind, repository.CreateSupportParams{
		EpisodeID:   view.episodeID,
		Description: description,
		CreatedBy:   actorID,
	})
	if err != nil {
		return err
	}
	out.created = append(out.created, createdRef{typ: kind, id: w.ID})

	members, err := s.teams.ActiveMembers(ctx, view.episodeID, role)
	if err != nil {
		return err
	}
	out.notify(members, string(kind)+"_created", "New task", description,
		map[string]any{"workItemId": w.ID, "type": string(kind)})
	return nil
}

// cascadeRecording handles sound-recording transitions. The follow-up
// sound-editing task is created when the recording is reviewed, not
// when it completes.
func (s *Service) cascadeRecording(ctx context.Context, q db.Querier, view itemView, to domain.Status, actorID uuid.UUID, out *cascadeOutcome) error {
	switch to {
	case domain.StatusInProgress:
		return s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageShootingRecording, string(identitydomain.RoleSoundEngineer),
			"recording started", actorID)

	case domain.StatusReviewed:
		exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, &view.id, domain.TypeSoundEditing)
		if err != nil {
			return err
		}
		if !exists {
			recordingID := view.id
			editing, err := s.repo.CreateEditingIn(ctx, q, repository.CreateEditingParams{
				EpisodeID:        view.episodeID,
				SoundRecordingID: &recordingID,
				AssignedTo:       view.assignedTo,
				CreatedBy:        actorID,
			})
			if err != nil {
				return err
			}
			out.created = append(out.created, createdRef{typ: domain.TypeSoundEditing, id: editing.ID})

			engineers, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleSoundEngineer)
			if err != nil {
				return err
			}
			out.notify(engineers, "sound_editing_created", "Editing task created",
				"A reviewed recording is ready for sound editing.",
				map[string]any{"soundEditingId": editing.ID, "soundRecordingId": view.id})
		}
		return s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageSoundEngineering, string(identitydomain.RoleSoundEngineer),
			"recording reviewed", actorID)
	}
	return nil
}

func (s *Service) cascadeEditing(ctx context.Context, q db.Querier, view itemView, to domain.Status, actorID uuid.UUID, notes string, out *cascadeOutcome) error {
	switch to {
	case domain.StatusApproved:
		editors, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleEditor)
		if err != nil {
			return err
		}
		if len(editors) == 0 {
			editors, err = s.teams.GlobalRoleHolders(ctx, identitydomain.GlobalEditor)
			if err != nil {
				return err
			}
		}
		out.notify(editors, "sound_editing_approved", "Sound ready for the edit",
			"Approved sound is ready; the video edit can begin.",
			map[string]any{"soundEditingId": view.id})

		return s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageEditing, string(identitydomain.RoleEditor),
			"sound editing approved", actorID)

	case domain.StatusRevisionNeeded:
		target := view.createdBy
		if view.assignedTo != nil {
			target = *view.assignedTo
		}
		message := "The sound edit needs revision."
		if notes != "" {
			message = fmt.Sprintf("The sound edit needs revision: %s", notes)
		}
		out.notify([]uuid.UUID{target}, "sound_editing_revision", "Revision requested", message,
			map[string]any{"soundEditingId": view.id})
	}
	return nil
}

func (s *Service) cascadeEditorWork(ctx context.Context, q db.Querier, view itemView, to domain.Status, actorID uuid.UUID, notes string, out *cascadeOutcome) error {
	switch to {
	case domain.StatusApproved:
		exists, err := s.repo.CascadeExists(ctx, q, view.episodeID, &view.id, domain.TypeQualityControl)
		if err != nil {
			return err
		}
		if !exists {
			editorWorkID := view.id
			qc, err := s.repo.CreateQCIn(ctx, q, repository.CreateQCParams{
				EpisodeID:    view.episodeID,
				EditorWorkID: &editorWorkID,
				CreatedBy:    actorID,
			})
			if err != nil {
				return err
			}
			out.created = append(out.created, createdRef{typ: domain.TypeQualityControl, id: qc.ID})

			reviewers, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleQualityControl)
			if err != nil {
				return err
			}
			out.notify(reviewers, "quality_control_created", "Episode ready for QC",
				"An approved edit awaits quality control.",
				map[string]any{"qualityControlId": qc.ID, "editorWorkId": view.id})
		}
		return s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageQualityControl, string(identitydomain.RoleQualityControl),
			"editor work approved", actorID)

	case domain.StatusRevisionNeeded:
		message := "The edit needs revision."
		if notes != "" {
			message = fmt.Sprintf("The edit needs revision: %s", notes)
		}
		out.notify([]uuid.UUID{view.createdBy}, "editor_work_revision", "Revision requested", message,
			map[string]any{"editorWorkId": view.id})
	}
	return nil
}

func (s *Service) cascadeQC(ctx context.Context, q db.Querier, view itemView, to domain.Status, actorID uuid.UUID, notes string, out *cascadeOutcome) error {
	switch to {
	case domain.StatusApproved:
		broadcasters, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleBroadcasting)
		if err != nil {
			return err
		}
		out.notify(broadcasters, "episode_ready_to_air", "Episode passed QC",
			"The episode passed quality control and is ready to air.",
			map[string]any{"qualityControlId": view.id})

		return s.stages.EnsureStageAtLeastIn(ctx, q, view.episodeID,
			episodedomain.StageReadyToAir, string(identitydomain.RoleQualityControl),
			"quality control approved", actorID)

	case domain.StatusRevisionNeeded:
		editors, err := s.teams.ActiveMembers(ctx, view.episodeID, identitydomain.RoleEditor)
		if err != nil {
			return err
		}
		message := "Quality control returned the episode to editing."
		if notes != "" {
			message = fmt.Sprintf("Quality control returned the episode to editing: %s", notes)
		}
		out.notify(editors, "qc_revision", "QC failed", message,
			map[string]any{"qualityControlId": view.id})

		return s.stages.RevertStageIn(ctx, q, view.episodeID,
			episodedomain.StageEditing, string(identitydomain.RoleQualityControl),
			"quality control revision", actorID)
	}
	return nil
}

// dispatch persists the computed notifications after commit. This is
// best-effort: the authoritative transition already committed.
func (s *Service) dispatch(ctx context.Context, out cascadeOutcome) {
	episodeID := out.episodeID
	for _, note := range out.notes {
		s.notifier.Notify(ctx, note.userIDs, note.ntype, note.title, note.message, note.data, &episodeID)
	}
}
