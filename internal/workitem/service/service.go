// Package service implements work-item lifecycles: creation, the
// transition validator, and the approve/reject cascade engine.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	episodedomain "studio_production_backend/internal/episode/domain"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/internal/workitem/repository"
	"studio_production_backend/internal/workitem/transport"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

// Service provides work-item business logic for every variant.
type Service struct {
	repo     *repository.Repo
	teams    TeamResolver
	stages   EpisodeStages
	budgets  BudgetRequester
	notifier Notifier
	log      *logger.Logger
}

// New creates a new work-item service.
func New(repo *repository.Repo, teams TeamResolver, stages EpisodeStages, budgets BudgetRequester, notifier Notifier, log *logger.Logger) *Service {
	return &Service{repo: repo, teams: teams, stages: stages, budgets: budgets, notifier: notifier, log: log}
}

// itemView is the variant-independent slice of a work item the
// transition validator operates on.
type itemView struct {
	id         uuid.UUID
	episodeID  uuid.UUID
	status     domain.Status
	createdBy  uuid.UUID
	assignedTo *uuid.UUID
	needsHelp  bool
	fileKey    *string
}

// =============================================================================
// Creation
// =============================================================================

// CreateArrangement opens a song proposal (music arranger only).
func (s *Service) CreateArrangement(ctx context.Context, actorID uuid.UUID, req transport.CreateArrangementRequest) (transport.ArrangementResponse, error) {
	if err := s.teams.Authorize(ctx, actorID, req.EpisodeID, identitydomain.RoleMusicArranger); err != nil {
		return transport.ArrangementResponse{}, err
	}
	a, err := s.repo.CreateArrangement(ctx, repository.CreateArrangementParams{
		EpisodeID: req.EpisodeID,
		SongTitle: req.SongTitle,
		SongNotes: req.SongNotes,
		CreatedBy: actorID,
	})
	if err != nil {
		return transport.ArrangementResponse{}, err
	}
	return toArrangementResponse(a), nil
}

// CreateCreative submits the creative package (creative role only) and
// moves the episode into the creative-work stage.
func (s *Service) CreateCreative(ctx context.Context, actorID uuid.UUID, req transport.CreateCreativeRequest) (transport.CreativeResponse, error) {
	if err := s.teams.Authorize(ctx, actorID, req.EpisodeID, identitydomain.RoleCreative); err != nil {
		return transport.CreativeResponse{}, err
	}
	w, err := s.repo.CreateCreative(ctx, repository.CreateCreativeParams{
		EpisodeID:              req.EpisodeID,
		ScriptURL:              req.ScriptURL,
		StoryboardURL:          req.StoryboardURL,
		TotalBudget:            req.TotalBudget,
		ShootingSchedule:       req.ShootingSchedule,
		VocalRecordingSchedule: req.VocalRecordingSchedule,
		CreatedBy:              actorID,
	})
	if err != nil {
		return transport.CreativeResponse{}, err
	}

	if err := s.stages.EnsureStageAtLeastIn(ctx, s.repo.Pool(), w.EpisodeID,
		episodedomain.StageCreativeWork, string(identitydomain.RoleCreative),
		"creative package submitted", actorID); err != nil {
		s.log.Warn("stage advance after creative submission failed", "episode", w.EpisodeID, "error", err)
	}
	return toCreativeResponse(w), nil
}

// UpdateCreative amends an editable creative package (creator only,
// while rejected or revised).
func (s *Service) UpdateCreative(ctx context.Context, actorID, id uuid.UUID, req transport.UpdateCreativeRequest) (transport.CreativeResponse, error) {
	w, err := s.repo.GetCreative(ctx, id)
	if err != nil {
		return transport.CreativeResponse{}, err
	}
	if w.Status != domain.StatusRejected && w.Status != domain.StatusRevised {
		return transport.CreativeResponse{}, apperr.Conflict(fmt.Sprintf("creative work is not editable while %s", w.Status))
	}
	if w.CreatedBy != actorID {
		return transport.CreativeResponse{}, apperr.Forbidden("only the creator may edit the creative package")
	}

	updated, err := s.repo.UpdateCreativeFields(ctx, id, repository.CreateCreativeParams{
		ScriptURL:              req.ScriptURL,
		StoryboardURL:          req.StoryboardURL,
		TotalBudget:            req.TotalBudget,
		ShootingSchedule:       req.ShootingSchedule,
		VocalRecordingSchedule: req.VocalRecordingSchedule,
	})
	if err != nil {
		return transport.CreativeResponse{}, err
	}
	return toCreativeResponse(updated), nil
}

// CreateEditorWork opens a video edit deliverable (editor role only).
func (s *Service) CreateEditorWork(ctx context.Context, actorID uuid.UUID, req transport.CreateEditorWorkRequest) (transport.EditorWorkResponse, error) {
	if err := s.teams.Authorize(ctx, actorID, req.EpisodeID, identitydomain.RoleEditor); err != nil {
		return transport.EditorWorkResponse{}, err
	}
	w, err := s.repo.CreateEditorWork(ctx, repository.CreateEditorWorkParams{
		EpisodeID: req.EpisodeID,
		CreatedBy: actorID,
	})
	if err != nil {
		return transport.EditorWorkResponse{}, err
	}
	return toEditorWorkResponse(w), nil
}

// =============================================================================
// Transition orchestration
// =============================================================================

// Transition validates, authorizes, and commits one status change,
// firing the variant's cascade in the same transaction. Error
// precedence: not-found, then wrong-state, then unauthorized, then
// missing data.
func (s *Service) Transition(ctx context.Context, typ domain.Type, id, actorID uuid.UUID, req transport.TransitionRequest) (transport.TransitionResult, error) {
	if !typ.Valid() {
		return transport.TransitionResult{}, apperr.Validation(fmt.Sprintf("unknown work item type %q", typ))
	}

	view, creative, err := s.loadView(ctx, typ, id)
	if err != nil {
		return transport.TransitionResult{}, err
	}

	action := domain.Action(req.Action)
	tr, ok := domain.Lookup(typ, view.status, action)
	if !ok {
		if domain.KnownAction(typ, action) {
			return transport.TransitionResult{}, apperr.Conflict(
				fmt.Sprintf("action %s is not legal while %s is %s", action, typ, view.status))
		}
		return transport.TransitionResult{}, apperr.Validation(
			fmt.Sprintf("unknown action %q for %s", action, typ))
	}

	if err := s.authorize(ctx, actorID, view, tr.Req); err != nil {
		return transport.TransitionResult{}, err
	}

	if missing := missingData(tr, view, creative, req); len(missing) > 0 {
		return transport.TransitionResult{}, apperr.Validation("required data missing").
			WithDetails(map[string]any{"missing": missing})
	}

	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return transport.TransitionResult{}, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	update := buildStatusUpdate(typ, view, tr.To, action, actorID, req)
	applied, err := s.applyUpdate(ctx, tx, typ, update)
	if err != nil {
		return transport.TransitionResult{}, err
	}
	if !applied {
		return transport.TransitionResult{}, apperr.Conflict(
			fmt.Sprintf("%s status changed concurrently", typ))
	}

	outcome, err := s.runCascade(ctx, tx, typ, view, creative, tr.To, actorID, req.Notes)
	if err != nil {
		return transport.TransitionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return transport.TransitionResult{}, fmt.Errorf("commit transition: %w", err)
	}

	s.dispatch(ctx, outcome)
	s.log.Cascade(string(typ), view.id.String(), len(outcome.created), len(outcome.notes))

	result := transport.TransitionResult{ID: view.id, Type: string(typ), Status: string(tr.To)}
	for _, c := range outcome.created {
		result.CreatedItems = append(result.CreatedItems, transport.CreatedItem{Type: string(c.typ), ID: c.id})
	}
	return result, nil
}

func (s *Service) loadView(ctx context.Context, typ domain.Type, id uuid.UUID) (itemView, *repository.CreativeWork, error) {
	switch typ {
	case domain.TypeMusicArrangement:
		a, err := s.repo.GetArrangement(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: a.ID, episodeID: a.EpisodeID, status: a.Status, createdBy: a.CreatedBy,
			assignedTo: a.AssignedTo, needsHelp: a.NeedsHelp, fileKey: a.FileKey}, nil, nil

	case domain.TypeCreativeWork:
		w, err := s.repo.GetCreative(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: w.ID, episodeID: w.EpisodeID, status: w.Status, createdBy: w.CreatedBy}, &w, nil

	case domain.TypeSoundRecording:
		r, err := s.repo.GetRecording(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: r.ID, episodeID: r.EpisodeID, status: r.Status, createdBy: r.CreatedBy,
			assignedTo: r.AssignedTo, fileKey: r.FileKey}, nil, nil

	case domain.TypeSoundEditing:
		e, err := s.repo.GetEditing(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: e.ID, episodeID: e.EpisodeID, status: e.Status, createdBy: e.CreatedBy,
			assignedTo: e.AssignedTo, fileKey: e.FileKey}, nil, nil

	case domain.TypeEditorWork:
		w, err := s.repo.GetEditorWork(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: w.ID, episodeID: w.EpisodeID, status: w.Status, createdBy: w.CreatedBy,
			assignedTo: w.AssignedTo, fileKey: w.FileKey}, nil, nil

	case domain.TypeProductionSupport, domain.TypePromotionWork:
		w, err := s.repo.GetSupport(ctx, typ, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: w.ID, episodeID: w.EpisodeID, status: w.Status, createdBy: w.CreatedBy,
			assignedTo: w.AssignedTo}, nil, nil

	case domain.TypeQualityControl:
		q, err := s.repo.GetQC(ctx, id)
		if err != nil {
			return itemView{}, nil, err
		}
		return itemView{id: q.ID, episodeID: q.EpisodeID, status: q.Status, createdBy: q.CreatedBy}, nil, nil
	}
	return itemView{}, nil, apperr.Validation(fmt.Sprintf("unknown work item type %q", typ))
}

// authorize passes when any enabled clause of the requirement holds.
// With no resolvable team every clause fails, so the check fails closed.
func (s *Service) authorize(ctx context.Context, actorID uuid.UUID, view itemView, req domain.Requirement) error {
	if req.Creator && (actorID == view.createdBy || (view.assignedTo != nil && *view.assignedTo == actorID)) {
		return nil
	}
	if view.needsHelp {
		for _, role := range req.HelpersWhenOpen {
			if s.teams.Authorize(ctx, actorID, view.episodeID, role) == nil {
				return nil
			}
		}
	}
	for _, role := range req.Roles {
		if s.teams.Authorize(ctx, actorID, view.episodeID, role) == nil {
			return nil
		}
	}
	if req.Ownership && s.teams.AuthorizeOwnership(ctx, actorID, view.episodeID) == nil {
		return nil
	}
	if req.Manager && s.teams.RequireManagerProgram(ctx, actorID) == nil {
		return nil
	}
	return apperr.Forbidden("actor is not allowed to perform this action")
}

// missingData evaluates the transition's preconditions against the item
// and the request payload, returning every missing key.
func missingData(tr domain.Transition, view itemView, creative *repository.CreativeWork, req transport.TransitionRequest) []string {
	var missing []string
	for _, p := range tr.Preconditions {
		switch p {
		case domain.PrecondFile:
			if req.FileKey == "" && (view.fileKey == nil || *view.fileKey == "") {
				missing = append(missing, string(p))
			}
		case domain.PrecondAssignee:
			if req.AssignedTo == nil {
				missing = append(missing, string(p))
			}
		case domain.PrecondScript:
			if creative == nil || creative.ScriptURL == nil || *creative.ScriptURL == "" {
				missing = append(missing, string(p))
			}
		case domain.PrecondStoryboard:
			if creative == nil || creative.StoryboardURL == nil || *creative.StoryboardURL == "" {
				missing = append(missing, string(p))
			}
		case domain.PrecondBudget:
			if creative == nil || creative.TotalBudget <= 0 {
				missing = append(missing, string(p))
			}
		case domain.PrecondShootingSchedule:
			if creative == nil || creative.ShootingSchedule == nil {
				missing = append(missing, string(p))
			}
		case domain.PrecondVocalSchedule:
			if creative == nil || creative.VocalRecordingSchedule == nil {
				missing = append(missing, string(p))
			}
		}
	}
	return missing
}

// buildStatusUpdate translates the transition into the guarded write.
func buildStatusUpdate(typ domain.Type, view itemView, to domain.Status, action domain.Action, actorID uuid.UUID, req transport.TransitionRequest) repository.StatusUpdate {
	u := repository.StatusUpdate{ID: view.id, From: view.status, To: to}

	switch action {
	case domain.ActionApprove, domain.ActionReject, domain.ActionReview, domain.ActionRequestRevision:
		u.ReviewedBy = &actorID
		if req.Notes != "" {
			notes := req.Notes
			u.ReviewNotes = &notes
		}
	case domain.ActionAssign:
		u.AssignedTo = req.AssignedTo
	}

	if req.FileKey != "" {
		key := req.FileKey
		u.FileKey = &key
	}

	if domain.NeedsHelpOnEntry(to) {
		needsHelp := true
		u.NeedsHelp = &needsHelp
		u.ClearAssignee = true
	} else if typ == domain.TypeMusicArrangement && view.needsHelp {
		// a claim out of the open state: the actor takes the item
		needsHelp := false
		u.NeedsHelp = &needsHelp
		u.AssignedTo = &actorID
	}

	// first engineer to start an unassigned recording claims it
	if typ == domain.TypeSoundRecording && action == domain.ActionStart && view.assignedTo == nil {
		u.AssignedTo = &actorID
	}

	return u
}

func (s *Service) applyUpdate(ctx context.Context, q db.Querier, typ domain.Type, u repository.StatusUpdate) (bool, error) {
	switch typ {
	case domain.TypeMusicArrangement:
		return s.repo.UpdateArrangementStatusGuarded(ctx, q, u)
	case domain.TypeCreativeWork:
		return s.repo.UpdateCreativeStatusGuarded(ctx, q, u)
	case domain.TypeSoundRecording:
		return s.repo.UpdateRecordingStatusGuarded(ctx, q, u)
	case domain.TypeSoundEditing:
		return s.repo.UpdateEditingStatusGuarded(ctx, q, u)
	case domain.TypeEditorWork:
		return s.repo.UpdateEditorWorkStatusGuarded(ctx, q, u)
	case domain.TypeProductionSupport, domain.TypePromotionWork:
		return s.repo.UpdateSupportStatusGuarded(ctx, q, typ, u)
	case domain.TypeQualityControl:
		return s.repo.UpdateQCStatusGuarded(ctx, q, u)
	}
	return false, apperr.Validation(fmt.Sprintf("unknown work item type %q", typ))
}
