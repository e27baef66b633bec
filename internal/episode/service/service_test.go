package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studio_production_backend/internal/episode/domain"
	"studio_production_backend/internal/episode/repository"
	"studio_production_backend/internal/episode/transport"
	"studio_production_backend/internal/events"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

type fakeEpisodeRepo struct {
	programs     map[uuid.UUID]repository.Program
	episodes     map[uuid.UUID]repository.Episode
	stageLogs    map[uuid.UUID][]repository.StageLog
	facts        map[repository.WorkItemFact]bool
	deadlinesOK  bool
	yearOccupied int
}

func newFakeEpisodeRepo() *fakeEpisodeRepo {
	return &fakeEpisodeRepo{
		programs:  map[uuid.UUID]repository.Program{},
		episodes:  map[uuid.UUID]repository.Episode{},
		stageLogs: map[uuid.UUID][]repository.StageLog{},
		facts:     map[repository.WorkItemFact]bool{},
	}
}

func (f *fakeEpisodeRepo) CreateProgram(_ context.Context, name string, managerID uuid.UUID) (repository.Program, error) {
	p := repository.Program{ID: uuid.New(), Name: name, ManagerID: managerID, CreatedAt: time.Now()}
	f.programs[p.ID] = p
	return p, nil
}

func (f *fakeEpisodeRepo) GetProgram(_ context.Context, id uuid.UUID) (repository.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return repository.Program{}, apperr.NotFound("program not found")
	}
	return p, nil
}

func (f *fakeEpisodeRepo) CreateEpisode(_ context.Context, _ db.Querier, params repository.CreateEpisodeParams) (repository.Episode, error) {
	e := repository.Episode{
		ID:            uuid.New(),
		ProgramID:     params.ProgramID,
		EpisodeNumber: params.EpisodeNumber,
		Title:         params.Title,
		AirDate:       params.AirDate,
		CurrentStage:  domain.StagePlanning,
		CreatedBy:     params.CreatedBy,
		CreatedAt:     time.Now(),
	}
	f.episodes[e.ID] = e
	return e, nil
}

func (f *fakeEpisodeRepo) GetEpisode(_ context.Context, id uuid.UUID) (repository.Episode, error) {
	e, ok := f.episodes[id]
	if !ok {
		return repository.Episode{}, apperr.NotFound("episode not found")
	}
	return e, nil
}

func (f *fakeEpisodeRepo) GetEpisodeIn(ctx context.Context, _ db.Querier, id uuid.UUID) (repository.Episode, error) {
	return f.GetEpisode(ctx, id)
}

func (f *fakeEpisodeRepo) ListEpisodesByProgram(_ context.Context, programID uuid.UUID) ([]repository.Episode, error) {
	var out []repository.Episode
	for _, e := range f.episodes {
		if e.ProgramID == programID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEpisodeRepo) CountEpisodesInYear(_ context.Context, _ db.Querier, _ uuid.UUID, _ int) (int, error) {
	return f.yearOccupied, nil
}

func (f *fakeEpisodeRepo) SetRundown(_ context.Context, id uuid.UUID, fileKey string) error {
	e, ok := f.episodes[id]
	if !ok {
		return apperr.NotFound("episode not found")
	}
	e.RundownFileKey = &fileKey
	f.episodes[id] = e
	return nil
}

func (f *fakeEpisodeRepo) UpdateStageGuarded(_ context.Context, _ db.Querier, id uuid.UUID, from, to domain.Stage) (bool, error) {
	e, ok := f.episodes[id]
	if !ok || e.CurrentStage != from {
		return false, nil
	}
	e.CurrentStage = to
	f.episodes[id] = e
	return true, nil
}

func (f *fakeEpisodeRepo) InsertStageLog(_ context.Context, _ db.Querier, params repository.StageLogParams) error {
	f.stageLogs[params.EpisodeID] = append(f.stageLogs[params.EpisodeID], repository.StageLog{
		ID:        uuid.New(),
		EpisodeID: params.EpisodeID,
		FromStage: params.FromStage,
		ToStage:   params.ToStage,
		OwnerRole: params.OwnerRole,
		Reason:    params.Reason,
		CreatedBy: params.CreatedBy,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeEpisodeRepo) ListStageLogs(_ context.Context, episodeID uuid.UUID) ([]repository.StageLog, error) {
	return f.stageLogs[episodeID], nil
}

func (f *fakeEpisodeRepo) HasWorkItemFact(_ context.Context, _ uuid.UUID, fact repository.WorkItemFact) (bool, error) {
	return f.facts[fact], nil
}

func (f *fakeEpisodeRepo) DeadlinesAllCompleted(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.deadlinesOK, nil
}

type fakeAccess struct {
	managers map[uuid.UUID]bool
	owners   map[string]bool // userID|episodeID
}

func (f *fakeAccess) RequireManagerProgram(_ context.Context, userID uuid.UUID) error {
	if f.managers[userID] {
		return nil
	}
	return apperr.Forbidden("manager program role required")
}

func (f *fakeAccess) AuthorizeOwnership(_ context.Context, userID, episodeID uuid.UUID) error {
	if f.owners[userID.String()+"|"+episodeID.String()] {
		return nil
	}
	return apperr.Forbidden("not the episode producer")
}

// fakeDeadlineGen counts calls and can fail after a set number of
// episodes to exercise batch rollback.
type fakeDeadlineGen struct {
	calls     int
	failAfter int // 0 means never fail
}

func (f *fakeDeadlineGen) GenerateForEpisodeIn(_ context.Context, _ db.Querier, episodeID uuid.UUID, airDate time.Time) ([]GeneratedDeadline, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, fmt.Errorf("deadline insert failed")
	}
	return []GeneratedDeadline{{ID: uuid.New(), Role: "editor", Date: airDate.AddDate(0, 0, -14)}}, nil
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

type fakeTxBeginner struct {
	committed bool
}

func (f *fakeTxBeginner) Begin(context.Context) (pgx.Tx, error) {
	return fakeTx{committed: &f.committed}, nil
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *capturingBus) Subscribe(string, events.Handler) {}

type episodeTestEnv struct {
	repo      *fakeEpisodeRepo
	pool      *fakeTxBeginner
	access    *fakeAccess
	deadlines *fakeDeadlineGen
	bus       *capturingBus
	svc       *Service
	manager   uuid.UUID
}

func newEpisodeTestEnv() *episodeTestEnv {
	env := &episodeTestEnv{
		repo:      newFakeEpisodeRepo(),
		pool:      &fakeTxBeginner{},
		access:    &fakeAccess{managers: map[uuid.UUID]bool{}, owners: map[string]bool{}},
		deadlines: &fakeDeadlineGen{},
		bus:       &capturingBus{},
		manager:   uuid.New(),
	}
	env.access.managers[env.manager] = true
	env.svc = New(env.repo, env.pool, env.access, env.deadlines, env.bus, logger.New("test"))
	return env
}

func TestCheckReadinessListsEveryMissingCriterion(t *testing.T) {
	env := newEpisodeTestEnv()
	e, _ := env.repo.CreateEpisode(context.Background(), nil, repository.CreateEpisodeParams{
		ProgramID: uuid.New(), EpisodeNumber: 1, Title: "Pilot",
		AirDate: time.Now().AddDate(0, 1, 0), CreatedBy: env.manager,
	})

	report, err := env.svc.CheckReadiness(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.IsReady {
		t.Fatal("fresh episode must not be ready to air")
	}

	want := []string{
		"status_ready_to_air", "rundown", "deadlines",
		"music_arrangement", "creative_work", "sound_editing", "editor_work", "quality_control",
	}
	if len(report.Missing) != len(want) {
		t.Fatalf("missing = %v, want all %d criteria", report.Missing, len(want))
	}
	for i, key := range want {
		if report.Missing[i] != key {
			t.Errorf("missing[%d] = %s, want %s", i, report.Missing[i], key)
		}
	}
	if len(report.Criteria) != len(want) {
		t.Errorf("criteria = %d entries, want %d", len(report.Criteria), len(want))
	}
}

func TestCheckReadinessPartialMissing(t *testing.T) {
	env := newEpisodeTestEnv()
	e, _ := env.repo.CreateEpisode(context.Background(), nil, repository.CreateEpisodeParams{
		ProgramID: uuid.New(), EpisodeNumber: 1, Title: "Pilot",
		AirDate: time.Now().AddDate(0, 1, 0), CreatedBy: env.manager,
	})
	stored := env.repo.episodes[e.ID]
	stored.CurrentStage = domain.StageReadyToAir
	key := "rundowns/pilot.pdf"
	stored.RundownFileKey = &key
	env.repo.episodes[e.ID] = stored
	env.repo.deadlinesOK = true
	env.repo.facts[repository.FactArrangementApproved] = true
	env.repo.facts[repository.FactCreativeWorkApproved] = true
	env.repo.facts[repository.FactSoundEditingApproved] = true
	env.repo.facts[repository.FactEditorWorkApproved] = true
	// quality control deliberately left unapproved

	report, err := env.svc.CheckReadiness(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.IsReady {
		t.Fatal("episode without QC approval must not be ready")
	}
	if len(report.Missing) != 1 || report.Missing[0] != "quality_control" {
		t.Fatalf("missing = %v, want only quality_control", report.Missing)
	}

	env.repo.facts[repository.FactQCApproved] = true
	report, err = env.svc.CheckReadiness(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !report.IsReady || len(report.Missing) != 0 {
		t.Fatalf("all criteria met, want ready; missing = %v", report.Missing)
	}
}

func TestGenerateYearOccupiedConflicts(t *testing.T) {
	env := newEpisodeTestEnv()
	program, _ := env.repo.CreateProgram(context.Background(), "Evening Show", env.manager)
	env.repo.yearOccupied = 52

	_, err := env.svc.GenerateYear(context.Background(), env.manager, transport.GenerateYearRequest{
		ProgramID: program.ID, Year: 2025, Weekday: time.Friday, TitleStem: "Evening Show",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("occupied year must conflict, got %v", err)
	}
	if env.pool.committed {
		t.Error("conflicting generation must not commit")
	}
	if len(env.repo.episodes) != 0 {
		t.Errorf("conflicting generation created %d episodes", len(env.repo.episodes))
	}
	if len(env.bus.published) != 0 {
		t.Error("conflicting generation must not publish events")
	}
}

func TestGenerateYearCreatesWeeklySeason(t *testing.T) {
	env := newEpisodeTestEnv()
	program, _ := env.repo.CreateProgram(context.Background(), "Evening Show", env.manager)

	resp, err := env.svc.GenerateYear(context.Background(), env.manager, transport.GenerateYearRequest{
		ProgramID: program.ID, Year: 2025, Weekday: time.Friday, TitleStem: "Evening Show",
	})
	if err != nil {
		t.Fatal(err)
	}
	// 2025 has 52 Fridays
	if len(resp.Episodes) != 52 {
		t.Fatalf("expected 52 weekly episodes, got %d", len(resp.Episodes))
	}
	if !env.pool.committed {
		t.Error("successful generation must commit")
	}
	for i, e := range resp.Episodes {
		if e.EpisodeNumber != i+1 {
			t.Fatalf("episode %d numbered %d", i, e.EpisodeNumber)
		}
		if e.AirDate.Weekday() != time.Friday || e.AirDate.Year() != 2025 {
			t.Fatalf("episode %d airs %s", i+1, e.AirDate)
		}
	}
	if env.deadlines.calls != 52 {
		t.Errorf("deadlines generated for %d episodes, want 52", env.deadlines.calls)
	}
	// one created + one deadlines event per episode
	if len(env.bus.published) != 104 {
		t.Errorf("published %d events, want 104", len(env.bus.published))
	}
}

func TestGenerateYearFailedInsertAbortsBatch(t *testing.T) {
	env := newEpisodeTestEnv()
	program, _ := env.repo.CreateProgram(context.Background(), "Evening Show", env.manager)
	env.deadlines.failAfter = 3

	_, err := env.svc.GenerateYear(context.Background(), env.manager, transport.GenerateYearRequest{
		ProgramID: program.ID, Year: 2025, Weekday: time.Friday, TitleStem: "Evening Show",
	})
	if err == nil {
		t.Fatal("expected generation to fail")
	}
	if env.pool.committed {
		t.Error("failed batch must not commit")
	}
	if len(env.bus.published) != 0 {
		t.Error("failed batch must not publish events")
	}
}

func TestGenerateYearRequiresManager(t *testing.T) {
	env := newEpisodeTestEnv()
	program, _ := env.repo.CreateProgram(context.Background(), "Evening Show", env.manager)

	_, err := env.svc.GenerateYear(context.Background(), uuid.New(), transport.GenerateYearRequest{
		ProgramID: program.ID, Year: 2025, Weekday: time.Friday, TitleStem: "Evening Show",
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-manager, got %v", err)
	}
}

func TestAdvanceStageRejectsIllegalEdge(t *testing.T) {
	env := newEpisodeTestEnv()
	e, _ := env.repo.CreateEpisode(context.Background(), nil, repository.CreateEpisodeParams{
		ProgramID: uuid.New(), EpisodeNumber: 1, Title: "Pilot",
		AirDate: time.Now().AddDate(0, 1, 0), CreatedBy: env.manager,
	})

	err := env.svc.AdvanceStage(context.Background(), env.manager, e.ID, transport.AdvanceStageRequest{
		ToStage: string(domain.StageAired), OwnerRole: "broadcasting", Reason: "skip everything",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("planning to aired must conflict, got %v", err)
	}
}

func TestEnsureStageAtLeastInNoOpWhenAlreadyThere(t *testing.T) {
	env := newEpisodeTestEnv()
	e, _ := env.repo.CreateEpisode(context.Background(), nil, repository.CreateEpisodeParams{
		ProgramID: uuid.New(), EpisodeNumber: 1, Title: "Pilot",
		AirDate: time.Now().AddDate(0, 1, 0), CreatedBy: env.manager,
	})
	stored := env.repo.episodes[e.ID]
	stored.CurrentStage = domain.StageEditing
	env.repo.episodes[e.ID] = stored

	err := env.svc.EnsureStageAtLeastIn(context.Background(), nil, e.ID,
		domain.StageCreativeWork, "creative", "re-fired cascade", env.manager)
	if err != nil {
		t.Fatal(err)
	}
	if env.repo.episodes[e.ID].CurrentStage != domain.StageEditing {
		t.Error("forward-only guard must not move the episode backwards")
	}
	if len(env.repo.stageLogs[e.ID]) != 0 {
		t.Error("no-op ensure must not write a stage log")
	}
}
