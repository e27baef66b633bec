package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/workitem/domain"
	"studio_production_backend/internal/workitem/repository"
)

type fakePendingQueue struct {
	arrangements []repository.MusicArrangement
	creative     []repository.CreativeWork
	recordings   []repository.SoundRecording
	editings     []repository.SoundEditing
	editorWorks  []repository.EditorWork
	support      []repository.SupportWork
	qcs          []repository.QualityControl
}

func (f *fakePendingQueue) ListArrangementsPending(_ context.Context, _ []domain.Status, _ *uuid.UUID) ([]repository.MusicArrangement, error) {
	return f.arrangements, nil
}

func (f *fakePendingQueue) ListCreativePending(_ context.Context, _ []domain.Status, _ *uuid.UUID) ([]repository.CreativeWork, error) {
	return f.creative, nil
}

func (f *fakePendingQueue) ListRecordingsPending(_ context.Context, _ []domain.Status, _ *uuid.UUID) ([]repository.SoundRecording, error) {
	return f.recordings, nil
}

func (f *fakePendingQueue) ListEditingsPending(_ context.Context, _ []domain.Status, _ *uuid.UUID) ([]repository.SoundEditing, error) {
	return f.editings, nil
}

func (f *fakePendingQueue) ListEditorWorksPending(_ context.Context, _ []domain.Status, _ *uuid.UUID) ([]repository.EditorWork, error) {
	return f.editorWorks, nil
}

func (f *fakePendingQueue) ListSupportPending(_ context.Context, kind domain.Type, _ []domain.Status, _ *uuid.UUID) ([]repository.SupportWork, error) {
	var out []repository.SupportWork
	for _, w := range f.support {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakePendingQueue) ListQCPending(_ context.Context, _ []domain.Status) ([]repository.QualityControl, error) {
	return f.qcs, nil
}

// fakeTeams resolves memberships from a fixed episode list.
type fakeTeams struct {
	episodes map[uuid.UUID][]uuid.UUID // userID -> member episodes
	err      error
}

func (f *fakeTeams) Authorize(context.Context, uuid.UUID, uuid.UUID, identitydomain.RoleTag) error {
	return nil
}

func (f *fakeTeams) AuthorizeOwnership(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeTeams) RequireManagerProgram(context.Context, uuid.UUID) error { return nil }

func (f *fakeTeams) ActiveMembers(context.Context, uuid.UUID, identitydomain.RoleTag) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeTeams) GlobalRoleHolders(context.Context, string) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeTeams) MemberEpisodes(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes[userID], nil
}

// queueFixture spreads review-ready items across two episodes.
func queueFixture(mine, other uuid.UUID) *fakePendingQueue {
	return &fakePendingQueue{
		arrangements: []repository.MusicArrangement{
			{ID: uuid.New(), EpisodeID: mine, Status: domain.StatusSongProposal},
			{ID: uuid.New(), EpisodeID: other, Status: domain.StatusSongProposal},
		},
		creative: []repository.CreativeWork{
			{ID: uuid.New(), EpisodeID: mine, Status: domain.StatusSubmitted},
			{ID: uuid.New(), EpisodeID: other, Status: domain.StatusSubmitted},
		},
		editorWorks: []repository.EditorWork{
			{ID: uuid.New(), EpisodeID: other, Status: domain.StatusSubmitted},
		},
	}
}

func TestListPendingProducerScopedToMemberEpisodes(t *testing.T) {
	producer := uuid.New()
	mine, other := uuid.New(), uuid.New()
	queue := queueFixture(mine, other)
	teams := &fakeTeams{episodes: map[uuid.UUID][]uuid.UUID{producer: {mine}}}

	pending, err := listPendingWork(context.Background(), queue, teams, producer, identitydomain.GlobalProducer)
	if err != nil {
		t.Fatal(err)
	}

	if len(pending.Arrangements) != 1 || pending.Arrangements[0].EpisodeID != mine {
		t.Errorf("arrangements = %v, want only the member episode's", pending.Arrangements)
	}
	if len(pending.Creative) != 1 || pending.Creative[0].EpisodeID != mine {
		t.Errorf("creative = %v, want only the member episode's", pending.Creative)
	}
	if len(pending.EditorWorks) != 0 {
		t.Errorf("editor works = %v, want none outside the member episodes", pending.EditorWorks)
	}
}

func TestListPendingManagerSeesEverything(t *testing.T) {
	manager := uuid.New()
	mine, other := uuid.New(), uuid.New()
	queue := queueFixture(mine, other)
	teams := &fakeTeams{episodes: map[uuid.UUID][]uuid.UUID{}}

	pending, err := listPendingWork(context.Background(), queue, teams, manager, identitydomain.GlobalManagerProgram)
	if err != nil {
		t.Fatal(err)
	}

	if len(pending.Arrangements) != 2 || len(pending.Creative) != 2 || len(pending.EditorWorks) != 1 {
		t.Errorf("manager queue = %d arrangements, %d creative, %d editor works; want 2, 2, 1",
			len(pending.Arrangements), len(pending.Creative), len(pending.EditorWorks))
	}
}

func TestListPendingProducerWithoutTeamsSeesNothing(t *testing.T) {
	producer := uuid.New()
	queue := queueFixture(uuid.New(), uuid.New())
	teams := &fakeTeams{episodes: map[uuid.UUID][]uuid.UUID{}}

	pending, err := listPendingWork(context.Background(), queue, teams, producer, identitydomain.GlobalProducer)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending.Arrangements) != 0 || len(pending.Creative) != 0 || len(pending.EditorWorks) != 0 {
		t.Errorf("producer without teams got %+v, want empty queues", pending)
	}
}

func TestListPendingFailsClosedOnMembershipError(t *testing.T) {
	teams := &fakeTeams{err: errors.New("membership lookup failed")}
	queue := queueFixture(uuid.New(), uuid.New())

	if _, err := listPendingWork(context.Background(), queue, teams, uuid.New(), identitydomain.GlobalProducer); err == nil {
		t.Fatal("membership failure must fail the queue, not widen it")
	}
}

func TestListPendingMemberQCScopedToTeam(t *testing.T) {
	member := uuid.New()
	mine, other := uuid.New(), uuid.New()
	queue := &fakePendingQueue{
		qcs: []repository.QualityControl{
			{ID: uuid.New(), EpisodeID: mine, Status: domain.StatusPending},
			{ID: uuid.New(), EpisodeID: other, Status: domain.StatusPending},
		},
	}
	teams := &fakeTeams{episodes: map[uuid.UUID][]uuid.UUID{member: {mine}}}

	pending, err := listPendingWork(context.Background(), queue, teams, member, identitydomain.GlobalCrew)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending.QC) != 1 || pending.QC[0].EpisodeID != mine {
		t.Errorf("qc queue = %v, want only the member episode's", pending.QC)
	}
}
