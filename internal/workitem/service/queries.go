package service

import (
	"context"

	"github.com/google/uuid"

	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/internal/workitem/repository"
	"studio_production_backend/internal/workitem/transport"
)

// GetArrangement returns one music arrangement.
func (s *Service) GetArrangement(ctx context.Context, id uuid.UUID) (transport.ArrangementResponse, error) {
	a, err := s.repo.GetArrangement(ctx, id)
	if err != nil {
		return transport.ArrangementResponse{}, err
	}
	return toArrangementResponse(a), nil
}

// GetCreative returns one creative work.
func (s *Service) GetCreative(ctx context.Context, id uuid.UUID) (transport.CreativeResponse, error) {
	w, err := s.repo.GetCreative(ctx, id)
	if err != nil {
		return transport.CreativeResponse{}, err
	}
	return toCreativeResponse(w), nil
}

// ListByEpisode gathers every work item attached to an episode.
func (s *Service) ListByEpisode(ctx context.Context, episodeID uuid.UUID) (transport.EpisodeWork, error) {
	var work transport.EpisodeWork

	arrangements, err := s.repo.ListArrangementsByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, a := range arrangements {
		work.Arrangements = append(work.Arrangements, toArrangementResponse(a))
	}

	creative, err := s.repo.ListCreativeByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, w := range creative {
		work.Creative = append(work.Creative, toCreativeResponse(w))
	}

	recordings, err := s.repo.ListRecordingsByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, r := range recordings {
		work.Recordings = append(work.Recordings, toRecordingResponse(r))
	}

	editings, err := s.repo.ListEditingsByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, e := range editings {
		work.Editings = append(work.Editings, toEditingResponse(e))
	}

	editorWorks, err := s.repo.ListEditorWorksByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, w := range editorWorks {
		work.EditorWorks = append(work.EditorWorks, toEditorWorkResponse(w))
	}

	support, err := s.repo.ListSupportByEpisode(ctx, domain.TypeProductionSupport, episodeID)
	if err != nil {
		return work, err
	}
	for _, w := range support {
		work.Support = append(work.Support, toSupportResponse(w))
	}

	promotion, err := s.repo.ListSupportByEpisode(ctx, domain.TypePromotionWork, episodeID)
	if err != nil {
		return work, err
	}
	for _, w := range promotion {
		work.Promotion = append(work.Promotion, toSupportResponse(w))
	}

	qcs, err := s.repo.ListQCByEpisode(ctx, episodeID)
	if err != nil {
		return work, err
	}
	for _, q := range qcs {
		work.QC = append(work.QC, toQCResponse(q))
	}

	return work, nil
}

// reviewQueueStatuses are the states a producer or manager acts on.
var reviewQueueStatuses = map[domain.Type][]domain.Status{
	domain.TypeMusicArrangement: {domain.StatusSongProposal, domain.StatusArrangementSubmitted},
	domain.TypeCreativeWork:     {domain.StatusSubmitted},
	domain.TypeSoundRecording:   {domain.StatusCompleted},
	domain.TypeSoundEditing:     {domain.StatusSubmitted},
	domain.TypeEditorWork:       {domain.StatusSubmitted},
}

// workQueueStatuses are the states an assignee drives forward.
var workQueueStatuses = map[domain.Type][]domain.Status{
	domain.TypeMusicArrangement: {domain.StatusDraft, domain.StatusSongApproved, domain.StatusSongRejected,
		domain.StatusArrangementInProgress, domain.StatusArrangementRejected},
	domain.TypeSoundRecording:    {domain.StatusDraft, domain.StatusInProgress},
	domain.TypeSoundEditing:      {domain.StatusDraft, domain.StatusRevisionNeeded},
	domain.TypeEditorWork:        {domain.StatusDraft, domain.StatusRevisionNeeded},
	domain.TypeProductionSupport: {domain.StatusPending, domain.StatusInProgress},
	domain.TypePromotionWork:     {domain.StatusPending, domain.StatusInProgress},
}

// episodeScope limits queue entries to the actor's member episodes.
// A nil scope means unrestricted (program managers).
type episodeScope map[uuid.UUID]bool

func (sc episodeScope) allows(episodeID uuid.UUID) bool {
	return sc == nil || sc[episodeID]
}

// pendingQueue is the slice of the repository the queue query reads.
type pendingQueue interface {
	ListArrangementsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]repository.MusicArrangement, error)
	ListCreativePending(ctx context.Context, statuses []domain.Status, createdBy *uuid.UUID) ([]repository.CreativeWork, error)
	ListRecordingsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]repository.SoundRecording, error)
	ListEditingsPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]repository.SoundEditing, error)
	ListEditorWorksPending(ctx context.Context, statuses []domain.Status, assignedTo *uuid.UUID) ([]repository.EditorWork, error)
	ListSupportPending(ctx context.Context, kind domain.Type, statuses []domain.Status, assignedTo *uuid.UUID) ([]repository.SupportWork, error)
	ListQCPending(ctx context.Context, statuses []domain.Status) ([]repository.QualityControl, error)
}

// ListPendingFor returns the actor's queue: producers and managers see
// the items waiting for their review; everyone else sees the items
// assigned to them (plus open needs-help arrangements), and the QC
// queue of their team. Everyone but the program manager is scoped to
// the episodes of teams they belong to; a failed membership lookup
// fails the whole query rather than widening the view.
func (s *Service) ListPendingFor(ctx context.Context, actorID uuid.UUID, globalRole string) (transport.PendingWork, error) {
	return listPendingWork(ctx, s.repo, s.teams, actorID, globalRole)
}

func listPendingWork(ctx context.Context, repo pendingQueue, teams TeamResolver, actorID uuid.UUID, globalRole string) (transport.PendingWork, error) {
	var pending transport.PendingWork

	isReviewer := globalRole == identitydomain.GlobalProducer || globalRole == identitydomain.GlobalManagerProgram

	var scope episodeScope
	if globalRole != identitydomain.GlobalManagerProgram {
		episodes, err := teams.MemberEpisodes(ctx, actorID)
		if err != nil {
			return pending, err
		}
		scope = make(episodeScope, len(episodes))
		for _, id := range episodes {
			scope[id] = true
		}
	}

	var assignee *uuid.UUID
	statuses := workQueueStatuses
	if isReviewer {
		statuses = reviewQueueStatuses
	} else {
		assignee = &actorID
	}

	if states, ok := statuses[domain.TypeMusicArrangement]; ok {
		arrangements, err := repo.ListArrangementsPending(ctx, states, assignee)
		if err != nil {
			return pending, err
		}
		for _, a := range arrangements {
			if scope.allows(a.EpisodeID) {
				pending.Arrangements = append(pending.Arrangements, toArrangementResponse(a))
			}
		}
	}

	if states, ok := statuses[domain.TypeCreativeWork]; ok {
		creative, err := repo.ListCreativePending(ctx, states, nil)
		if err != nil {
			return pending, err
		}
		for _, w := range creative {
			if scope.allows(w.EpisodeID) {
				pending.Creative = append(pending.Creative, toCreativeResponse(w))
			}
		}
	}

	if states, ok := statuses[domain.TypeSoundRecording]; ok {
		recordings, err := repo.ListRecordingsPending(ctx, states, assignee)
		if err != nil {
			return pending, err
		}
		for _, r := range recordings {
			if scope.allows(r.EpisodeID) {
				pending.Recordings = append(pending.Recordings, toRecordingResponse(r))
			}
		}
	}

	if states, ok := statuses[domain.TypeSoundEditing]; ok {
		editings, err := repo.ListEditingsPending(ctx, states, assignee)
		if err != nil {
			return pending, err
		}
		for _, e := range editings {
			if scope.allows(e.EpisodeID) {
				pending.Editings = append(pending.Editings, toEditingResponse(e))
			}
		}
	}

	if states, ok := statuses[domain.TypeEditorWork]; ok {
		works, err := repo.ListEditorWorksPending(ctx, states, assignee)
		if err != nil {
			return pending, err
		}
		for _, w := range works {
			if scope.allows(w.EpisodeID) {
				pending.EditorWorks = append(pending.EditorWorks, toEditorWorkResponse(w))
			}
		}
	}

	if !isReviewer {
		for _, kind := range []domain.Type{domain.TypeProductionSupport, domain.TypePromotionWork} {
			tasks, err := repo.ListSupportPending(ctx, kind, workQueueStatuses[kind], assignee)
			if err != nil {
				return pending, err
			}
			for _, w := range tasks {
				if !scope.allows(w.EpisodeID) {
					continue
				}
				if kind == domain.TypePromotionWork {
					pending.Promotion = append(pending.Promotion, toSupportResponse(w))
				} else {
					pending.Support = append(pending.Support, toSupportResponse(w))
				}
			}
		}

		qcs, err := repo.ListQCPending(ctx, []domain.Status{domain.StatusPending})
		if err != nil {
			return pending, err
		}
		for _, q := range qcs {
			if scope.allows(q.EpisodeID) {
				pending.QC = append(pending.QC, toQCResponse(q))
			}
		}
	}

	return pending, nil
}

func toArrangementResponse(a repository.MusicArrangement) transport.ArrangementResponse {
	return transport.ArrangementResponse{
		ID:          a.ID,
		EpisodeID:   a.EpisodeID,
		SongTitle:   a.SongTitle,
		SongNotes:   a.SongNotes,
		FileKey:     a.FileKey,
		Status:      string(a.Status),
		NeedsHelp:   a.NeedsHelp,
		AssignedTo:  a.AssignedTo,
		CreatedBy:   a.CreatedBy,
		ReviewedBy:  a.ReviewedBy,
		ReviewedAt:  a.ReviewedAt,
		ReviewNotes: a.ReviewNotes,
		CreatedAt:   a.CreatedAt,
	}
}

func toCreativeResponse(w repository.CreativeWork) transport.CreativeResponse {
	return transport.CreativeResponse{
		ID:                     w.ID,
		EpisodeID:              w.EpisodeID,
		Status:                 string(w.Status),
		ScriptURL:              w.ScriptURL,
		StoryboardURL:          w.StoryboardURL,
		TotalBudget:            w.TotalBudget,
		ShootingSchedule:       w.ShootingSchedule,
		VocalRecordingSchedule: w.VocalRecordingSchedule,
		CreatedBy:              w.CreatedBy,
		ReviewedBy:             w.ReviewedBy,
		ReviewedAt:             w.ReviewedAt,
		ReviewNotes:            w.ReviewNotes,
		CreatedAt:              w.CreatedAt,
	}
}

func toRecordingResponse(r repository.SoundRecording) transport.RecordingResponse {
	return transport.RecordingResponse{
		ID:                 r.ID,
		EpisodeID:          r.EpisodeID,
		MusicArrangementID: r.MusicArrangementID,
		AssignedTo:         r.AssignedTo,
		FileKey:            r.FileKey,
		Status:             string(r.Status),
		CreatedBy:          r.CreatedBy,
		ReviewedBy:         r.ReviewedBy,
		ReviewedAt:         r.ReviewedAt,
		CreatedAt:          r.CreatedAt,
	}
}

func toEditingResponse(e repository.SoundEditing) transport.EditingResponse {
	return transport.EditingResponse{
		ID:               e.ID,
		EpisodeID:        e.EpisodeID,
		SoundRecordingID: e.SoundRecordingID,
		AssignedTo:       e.AssignedTo,
		FileKey:          e.FileKey,
		Status:           string(e.Status),
		CreatedBy:        e.CreatedBy,
		ReviewedBy:       e.ReviewedBy,
		ReviewNotes:      e.ReviewNotes,
		CreatedAt:        e.CreatedAt,
	}
}

func toEditorWorkResponse(w repository.EditorWork) transport.EditorWorkResponse {
	return transport.EditorWorkResponse{
		ID:          w.ID,
		EpisodeID:   w.EpisodeID,
		AssignedTo:  w.AssignedTo,
		FileKey:     w.FileKey,
		Status:      string(w.Status),
		CreatedBy:   w.CreatedBy,
		ReviewedBy:  w.ReviewedBy,
		ReviewNotes: w.ReviewNotes,
		CreatedAt:   w.CreatedAt,
	}
}

func toSupportResponse(w repository.SupportWork) transport.SupportResponse {
	return transport.SupportResponse{
		ID:          w.ID,
		EpisodeID:   w.EpisodeID,
		Type:        string(w.Kind),
		Description: w.Description,
		AssignedTo:  w.AssignedTo,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
	}
}

func toQCResponse(q repository.QualityControl) transport.QCResponse {
	return transport.QCResponse{
		ID:           q.ID,
		EpisodeID:    q.EpisodeID,
		EditorWorkID: q.EditorWorkID,
		Notes:        q.Notes,
		Status:       string(q.Status),
		ReviewedBy:   q.ReviewedBy,
		ReviewNotes:  q.ReviewNotes,
		CreatedAt:    q.CreatedAt,
	}
}
