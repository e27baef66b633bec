package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studio_production_backend/internal/broadcast/repository"
	episodedomain "studio_production_backend/internal/episode/domain"
	episodetransport "studio_production_backend/internal/episode/transport"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

type fakeBroadcastRepo struct {
	schedules map[uuid.UUID]repository.Schedule
	works     map[uuid.UUID]repository.Work
}

func newFakeBroadcastRepo() *fakeBroadcastRepo {
	return &fakeBroadcastRepo{
		schedules: map[uuid.UUID]repository.Schedule{},
		works:     map[uuid.UUID]repository.Work{},
	}
}

func (f *fakeBroadcastRepo) MergeSlotIn(_ context.Context, _ db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string) (bool, error) {
	for id, s := range f.schedules {
		if s.EpisodeID == episodeID && s.Status != repository.ScheduleAired {
			s.SlotDate, s.SlotTime, s.Channel = slotDate, slotTime, channel
			f.schedules[id] = s
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBroadcastRepo) CreateScheduleIn(_ context.Context, _ db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string, createdBy uuid.UUID) (repository.Schedule, error) {
	s := repository.Schedule{
		ID: uuid.New(), EpisodeID: episodeID,
		SlotDate: slotDate, SlotTime: slotTime, Channel: channel,
		Status: repository.ScheduleDraft, CreatedBy: createdBy, CreatedAt: time.Now(),
	}
	f.schedules[s.ID] = s
	return s, nil
}

func (f *fakeBroadcastRepo) GetSchedule(_ context.Context, id uuid.UUID) (repository.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return repository.Schedule{}, apperr.NotFound("broadcasting schedule not found")
	}
	return s, nil
}

func (f *fakeBroadcastRepo) GetScheduleByEpisode(_ context.Context, episodeID uuid.UUID) (repository.Schedule, error) {
	for _, s := range f.schedules {
		if s.EpisodeID == episodeID {
			return s, nil
		}
	}
	return repository.Schedule{}, apperr.NotFound("broadcasting schedule not found")
}

func (f *fakeBroadcastRepo) UpdateScheduleStatusGuarded(_ context.Context, _ db.Querier, id uuid.UUID, from, to string) (bool, error) {
	s, ok := f.schedules[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	f.schedules[id] = s
	return true, nil
}

func (f *fakeBroadcastRepo) CreateWorkIn(_ context.Context, _ db.Querier, episodeID, scheduleID, createdBy uuid.UUID) (repository.Work, error) {
	w := repository.Work{
		ID: uuid.New(), EpisodeID: episodeID, ScheduleID: scheduleID,
		Status: repository.WorkPending, CreatedBy: createdBy, CreatedAt: time.Now(),
	}
	f.works[w.ID] = w
	return w, nil
}

func (f *fakeBroadcastRepo) GetWork(_ context.Context, id uuid.UUID) (repository.Work, error) {
	w, ok := f.works[id]
	if !ok {
		return repository.Work{}, apperr.NotFound("broadcast work not found")
	}
	return w, nil
}

func (f *fakeBroadcastRepo) GetWorkByEpisode(_ context.Context, episodeID uuid.UUID) (repository.Work, error) {
	for _, w := range f.works {
		if w.EpisodeID == episodeID {
			return w, nil
		}
	}
	return repository.Work{}, apperr.NotFound("broadcast work not found")
}

func (f *fakeBroadcastRepo) UpdateWorkStatusGuarded(_ context.Context, _ db.Querier, id uuid.UUID, from, to string, assignedTo *uuid.UUID) (bool, error) {
	w, ok := f.works[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	if assignedTo != nil {
		w.AssignedTo = assignedTo
	}
	f.works[id] = w
	return true, nil
}

type fakeAccess struct {
	managers map[uuid.UUID]bool
}

func (f *fakeAccess) Authorize(_ context.Context, _, _ uuid.UUID, _ identitydomain.RoleTag) error {
	return apperr.Forbidden("not a member")
}

func (f *fakeAccess) AuthorizeOwnership(_ context.Context, _, _ uuid.UUID) error {
	return apperr.Forbidden("not the episode producer")
}

func (f *fakeAccess) RequireManagerProgram(_ context.Context, userID uuid.UUID) error {
	if f.managers[userID] {
		return nil
	}
	return apperr.Forbidden("manager program role required")
}

type fakeReadiness struct {
	report episodetransport.ReadinessResponse
}

func (f *fakeReadiness) CheckReadiness(_ context.Context, episodeID uuid.UUID) (episodetransport.ReadinessResponse, error) {
	report := f.report
	report.EpisodeID = episodeID
	return report, nil
}

type stageMove struct {
	episodeID uuid.UUID
	to        episodedomain.Stage
}

type fakeStages struct {
	moves []stageMove
}

func (f *fakeStages) EnsureStageAtLeastIn(_ context.Context, _ db.Querier, episodeID uuid.UUID, to episodedomain.Stage, _, _ string, _ uuid.UUID) error {
	f.moves = append(f.moves, stageMove{episodeID: episodeID, to: to})
	return nil
}

type fakeTx struct {
	pgx.Tx
	committed *bool
}

func (t fakeTx) Commit(context.Context) error {
	*t.committed = true
	return nil
}

func (t fakeTx) Rollback(context.Context) error { return nil }

// fakePool satisfies the service's Pool; the plain Querier methods are
// never reached because the fake repository ignores its Querier.
type fakePool struct {
	committed bool
}

func (f *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected direct exec")
}

func (f *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected direct query")
}

func (f *fakePool) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (f *fakePool) Begin(context.Context) (pgx.Tx, error) {
	return fakeTx{committed: &f.committed}, nil
}

type broadcastTestEnv struct {
	repo      *fakeBroadcastRepo
	pool      *fakePool
	readiness *fakeReadiness
	stages    *fakeStages
	svc       *Service
	manager   uuid.UUID
}

func newBroadcastTestEnv() *broadcastTestEnv {
	env := &broadcastTestEnv{
		repo:      newFakeBroadcastRepo(),
		pool:      &fakePool{},
		readiness: &fakeReadiness{report: episodetransport.ReadinessResponse{IsReady: true}},
		stages:    &fakeStages{},
		manager:   uuid.New(),
	}
	access := &fakeAccess{managers: map[uuid.UUID]bool{env.manager: true}}
	env.svc = New(env.repo, env.pool, access, env.readiness, env.stages, logger.New("test"))
	return env
}

// seed creates a schedule in the given status and its airing task in
// the given work status.
func (env *broadcastTestEnv) seed(scheduleStatus, workStatus string) (repository.Schedule, repository.Work) {
	episodeID := uuid.New()
	s, _ := env.repo.CreateScheduleIn(context.Background(), nil, episodeID, nil, nil, nil, env.manager)
	s.Status = scheduleStatus
	env.repo.schedules[s.ID] = s
	w, _ := env.repo.CreateWorkIn(context.Background(), nil, episodeID, s.ID, env.manager)
	w.Status = workStatus
	env.repo.works[w.ID] = w
	return s, w
}

func TestAirHappyPath(t *testing.T) {
	env := newBroadcastTestEnv()
	s, w := env.seed(repository.ScheduleConfirmed, repository.WorkPreparing)

	if err := env.svc.Air(context.Background(), env.manager, w.ID); err != nil {
		t.Fatal(err)
	}
	if !env.pool.committed {
		t.Error("airing must commit")
	}
	if got := env.repo.works[w.ID].Status; got != repository.WorkAired {
		t.Errorf("work status = %s, want aired", got)
	}
	if got := env.repo.schedules[s.ID].Status; got != repository.ScheduleAired {
		t.Errorf("schedule status = %s, want aired", got)
	}
	if len(env.stages.moves) != 1 || env.stages.moves[0].to != episodedomain.StageAired {
		t.Errorf("stage moves = %v, want one move to aired", env.stages.moves)
	}
}

func TestAirBlockedWhenNotReady(t *testing.T) {
	env := newBroadcastTestEnv()
	env.readiness.report = episodetransport.ReadinessResponse{
		IsReady: false,
		Missing: []string{"rundown", "quality_control"},
	}
	s, w := env.seed(repository.ScheduleConfirmed, repository.WorkPreparing)

	err := env.svc.Air(context.Background(), env.manager, w.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unready episode, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected an app error")
	}
	details, ok := appErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", appErr.Details)
	}
	missing, ok := details["missing"].([]string)
	if !ok || len(missing) != 2 || missing[0] != "rundown" || missing[1] != "quality_control" {
		t.Errorf("details missing = %v, want the full readiness gap list", details["missing"])
	}

	if env.pool.committed {
		t.Error("blocked airing must not commit")
	}
	if got := env.repo.works[w.ID].Status; got != repository.WorkPreparing {
		t.Errorf("work status = %s, want unchanged preparing", got)
	}
	if got := env.repo.schedules[s.ID].Status; got != repository.ScheduleConfirmed {
		t.Errorf("schedule status = %s, want unchanged confirmed", got)
	}
	if len(env.stages.moves) != 0 {
		t.Error("blocked airing must not move the episode stage")
	}
}

func TestAirRequiresPreparingWork(t *testing.T) {
	env := newBroadcastTestEnv()
	_, w := env.seed(repository.ScheduleConfirmed, repository.WorkPending)

	if err := env.svc.Air(context.Background(), env.manager, w.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("pending work must conflict, got %v", err)
	}
}

func TestAirRequiresConfirmedSchedule(t *testing.T) {
	env := newBroadcastTestEnv()
	s, w := env.seed(repository.ScheduleDraft, repository.WorkPreparing)

	err := env.svc.Air(context.Background(), env.manager, w.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("draft schedule must conflict, got %v", err)
	}
	if env.pool.committed {
		t.Error("airing with a draft schedule must not commit")
	}
	if got := env.repo.schedules[s.ID].Status; got != repository.ScheduleDraft {
		t.Errorf("schedule status = %s, want unchanged draft", got)
	}
	if len(env.stages.moves) != 0 {
		t.Error("airing with a draft schedule must not move the episode stage")
	}
}

func TestConfirmGuardsDraftOnly(t *testing.T) {
	env := newBroadcastTestEnv()
	s, _ := env.seed(repository.ScheduleAired, repository.WorkAired)

	if err := env.svc.Confirm(context.Background(), env.manager, s.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("confirming an aired schedule must conflict, got %v", err)
	}

	draft, _ := env.seed(repository.ScheduleDraft, repository.WorkPending)
	if err := env.svc.Confirm(context.Background(), env.manager, draft.ID); err != nil {
		t.Fatal(err)
	}
	if got := env.repo.schedules[draft.ID].Status; got != repository.ScheduleConfirmed {
		t.Errorf("schedule status = %s, want confirmed", got)
	}
}

func TestAirForbiddenWithoutRole(t *testing.T) {
	env := newBroadcastTestEnv()
	_, w := env.seed(repository.ScheduleConfirmed, repository.WorkPreparing)

	if err := env.svc.Air(context.Background(), uuid.New(), w.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}
}
