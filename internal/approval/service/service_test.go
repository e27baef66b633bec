package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studio_production_backend/internal/approval/repository"
	"studio_production_backend/internal/approval/transport"
	episodetransport "studio_production_backend/internal/episode/transport"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

type fakeApprovalRepo struct {
	approvals map[uuid.UUID]repository.Approval
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{approvals: map[uuid.UUID]repository.Approval{}}
}

func (f *fakeApprovalRepo) Create(_ context.Context, params repository.CreateParams) (repository.Approval, error) {
	a := repository.Approval{
		ID:             uuid.New(),
		ApprovableType: params.ApprovableType,
		ApprovableID:   params.ApprovableID,
		EpisodeID:      params.EpisodeID,
		ProgramID:      params.ProgramID,
		RequestedBy:    params.RequestedBy,
		Status:         repository.StatusPending,
		RequestData:    params.RequestData,
		CreatedAt:      time.Now(),
	}
	f.approvals[a.ID] = a
	return a, nil
}

func (f *fakeApprovalRepo) CreateIn(ctx context.Context, _ db.Querier, params repository.CreateParams) (repository.Approval, error) {
	return f.Create(ctx, params)
}

func (f *fakeApprovalRepo) Get(_ context.Context, id uuid.UUID) (repository.Approval, error) {
	a, ok := f.approvals[id]
	if !ok {
		return repository.Approval{}, apperr.NotFound("approval not found")
	}
	return a, nil
}

func (f *fakeApprovalRepo) ListPending(_ context.Context, approvableType string) ([]repository.Approval, error) {
	var out []repository.Approval
	for _, a := range f.approvals {
		if a.Status == repository.StatusPending && (approvableType == "" || a.ApprovableType == approvableType) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApprovalRepo) ReviewGuarded(_ context.Context, _ db.Querier, id, reviewedBy uuid.UUID, status string, notes *string) (bool, error) {
	a, ok := f.approvals[id]
	if !ok || a.Status != repository.StatusPending {
		return false, nil
	}
	now := time.Now()
	a.Status = status
	a.ReviewedBy = &reviewedBy
	a.ReviewedAt = &now
	a.ReviewNotes = notes
	f.approvals[id] = a
	return true, nil
}

type fakeAccess struct {
	managers map[uuid.UUID]bool
	globals  map[string][]uuid.UUID // role -> holders
}

func (f *fakeAccess) RequireManagerProgram(_ context.Context, userID uuid.UUID) error {
	if f.managers[userID] {
		return nil
	}
	return apperr.Forbidden("manager program role required")
}

func (f *fakeAccess) RequireGlobalRole(_ context.Context, userID uuid.UUID, role string) error {
	for _, id := range f.globals[role] {
		if id == userID {
			return nil
		}
	}
	return apperr.Forbidden("global role required")
}

func (f *fakeAccess) GlobalRoleHolders(_ context.Context, role string) ([]uuid.UUID, error) {
	return f.globals[role], nil
}

type sinkCall struct {
	episodeID uuid.UUID
	slot      ScheduleSlot
}

type fakeScheduleSink struct {
	calls []sinkCall
}

func (f *fakeScheduleSink) CreateOrMergeIn(_ context.Context, _ db.Querier, episodeID uuid.UUID, slot ScheduleSlot, _ uuid.UUID) error {
	f.calls = append(f.calls, sinkCall{episodeID: episodeID, slot: slot})
	return nil
}

type fakeSeasonGenerator struct {
	requests []episodetransport.GenerateYearRequest
	err      error
}

func (f *fakeSeasonGenerator) GenerateYear(_ context.Context, _ uuid.UUID, req episodetransport.GenerateYearRequest) (episodetransport.GenerateYearResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return episodetransport.GenerateYearResponse{}, f.err
	}
	return episodetransport.GenerateYearResponse{ProgramID: req.ProgramID, Year: req.Year}, nil
}

type notification struct {
	userIDs []uuid.UUID
	ntype   string
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, userIDs []uuid.UUID, ntype, _, _ string, _ map[string]any, _ *uuid.UUID) {
	f.sent = append(f.sent, notification{userIDs: userIDs, ntype: ntype})
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

type approvalTestEnv struct {
	repo     *fakeApprovalRepo
	pool     *fakeTxBeginner
	access   *fakeAccess
	sink     *fakeScheduleSink
	seasons  *fakeSeasonGenerator
	notifier *fakeNotifier
	svc      *Service
	manager  uuid.UUID
	reviewer uuid.UUID
}

func newApprovalTestEnv() *approvalTestEnv {
	env := &approvalTestEnv{
		repo:     newFakeApprovalRepo(),
		pool:     &fakeTxBeginner{},
		sink:     &fakeScheduleSink{},
		seasons:  &fakeSeasonGenerator{},
		notifier: &fakeNotifier{},
		manager:  uuid.New(),
		reviewer: uuid.New(),
	}
	env.access = &fakeAccess{
		managers: map[uuid.UUID]bool{env.manager: true},
		globals:  map[string][]uuid.UUID{identitydomain.GlobalDistributionManager: {env.reviewer}},
	}
	env.svc = New(env.repo, env.pool, env.access, env.sink, env.seasons, env.notifier, logger.New("test"))
	return env
}

func (env *approvalTestEnv) fileScheduleOption(t *testing.T, data transport.ScheduleOptionData) transport.ApprovalResponse {
	t.Helper()
	resp, err := env.svc.RequestScheduleOption(context.Background(), env.manager,
		transport.RequestScheduleOptionRequest{ScheduleOptionData: data})
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestRequestScheduleOptionNotifiesReviewers(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()

	resp := env.fileScheduleOption(t, transport.ScheduleOptionData{EpisodeID: &episodeID})
	if resp.Status != repository.StatusPending {
		t.Errorf("status = %s, want pending", resp.Status)
	}

	if len(env.notifier.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(env.notifier.sent))
	}
	n := env.notifier.sent[0]
	if n.ntype != "schedule_option_requested" || len(n.userIDs) != 1 || n.userIDs[0] != env.reviewer {
		t.Errorf("notification = %+v, want the distribution manager notified", n)
	}
}

func TestRequestScheduleOptionNeedsTarget(t *testing.T) {
	env := newApprovalTestEnv()

	_, err := env.svc.RequestScheduleOption(context.Background(), env.manager, transport.RequestScheduleOptionRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("option without episode or program+year must fail validation, got %v", err)
	}
}

func TestReviewApprovePlacesSchedule(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()
	slotTime := "20:30"
	channel := "Channel 1"
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{
		EpisodeID: &episodeID, SlotTime: &slotTime, Channel: &channel,
	})

	resp, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "approve"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != repository.StatusApproved {
		t.Errorf("status = %s, want approved", resp.Status)
	}
	if resp.ReviewedBy == nil || *resp.ReviewedBy != env.reviewer {
		t.Error("review must record the reviewer")
	}
	if !env.pool.committed {
		t.Error("approval must commit with the schedule")
	}

	if len(env.sink.calls) != 1 {
		t.Fatalf("schedule sink called %d times, want 1", len(env.sink.calls))
	}
	call := env.sink.calls[0]
	if call.episodeID != episodeID || call.slot.SlotTime == nil || *call.slot.SlotTime != slotTime {
		t.Errorf("sink call = %+v, want the approved slot", call)
	}

	// requester is told the outcome
	last := env.notifier.sent[len(env.notifier.sent)-1]
	if last.ntype != "approval_approved" || len(last.userIDs) != 1 || last.userIDs[0] != env.manager {
		t.Errorf("outcome notification = %+v, want the requester notified", last)
	}
}

func TestReviewRejectSkipsSchedule(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{EpisodeID: &episodeID})

	resp, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "reject", Notes: "slot taken"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != repository.StatusRejected {
		t.Errorf("status = %s, want rejected", resp.Status)
	}
	if resp.ReviewNotes == nil || *resp.ReviewNotes != "slot taken" {
		t.Error("review must keep the notes")
	}
	if len(env.sink.calls) != 0 {
		t.Error("rejected option must not touch the broadcast schedule")
	}
}

func TestReviewScheduleOptionNeedsDistributionManager(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{EpisodeID: &episodeID})

	// the requesting program manager cannot decide their own option
	if _, err := env.svc.Review(context.Background(), env.manager, filed.ID, transport.ReviewRequest{Decision: "approve"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for program manager, got %v", err)
	}
}

func TestReviewAlreadyDecidedConflicts(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{EpisodeID: &episodeID})

	if _, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "approve"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "reject"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second review must conflict, got %v", err)
	}
}

func TestReviewSeasonOptionGeneratesYear(t *testing.T) {
	env := newApprovalTestEnv()
	programID := uuid.New()
	year := 2026
	weekday := int(time.Saturday)
	stem := "Evening Show"
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{
		ProgramID: &programID, Year: &year, Weekday: &weekday, TitleStem: &stem,
	})

	if _, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "approve"}); err != nil {
		t.Fatal(err)
	}

	if len(env.seasons.requests) != 1 {
		t.Fatalf("season generator called %d times, want 1", len(env.seasons.requests))
	}
	req := env.seasons.requests[0]
	if req.ProgramID != programID || req.Year != year || req.Weekday != time.Saturday || req.TitleStem != stem {
		t.Errorf("generation request = %+v", req)
	}
}

func TestReviewSeasonOptionSwallowsOccupiedYear(t *testing.T) {
	env := newApprovalTestEnv()
	env.seasons.err = apperr.Conflict("program already has 52 episodes in 2026")
	programID := uuid.New()
	year := 2026
	filed := env.fileScheduleOption(t, transport.ScheduleOptionData{ProgramID: &programID, Year: &year})

	resp, err := env.svc.Review(context.Background(), env.reviewer, filed.ID, transport.ReviewRequest{Decision: "approve"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != repository.StatusApproved {
		t.Errorf("status = %s, want approved despite the existing season", resp.Status)
	}
}

func TestBudgetRequestReviewedByManager(t *testing.T) {
	env := newApprovalTestEnv()
	episodeID := uuid.New()
	requester := uuid.New()

	if err := env.svc.RequestBudgetIn(context.Background(), nil, episodeID, 250000, requester); err != nil {
		t.Fatal(err)
	}

	pending, err := env.svc.ListPending(context.Background(), env.manager, repository.TypeBudgetRequest)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if got := pending[0].RequestData["requestedAmount"]; got != float64(250000) {
		t.Errorf("requestedAmount = %v, want 250000", got)
	}

	// the distribution manager cannot decide budget requests
	if _, err := env.svc.Review(context.Background(), env.reviewer, pending[0].ID, transport.ReviewRequest{Decision: "approve"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for distribution manager, got %v", err)
	}

	resp, err := env.svc.Review(context.Background(), env.manager, pending[0].ID, transport.ReviewRequest{Decision: "approve"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != repository.StatusApproved {
		t.Errorf("status = %s, want approved", resp.Status)
	}
	if len(env.sink.calls) != 0 {
		t.Error("budget approval must not create a broadcast schedule")
	}
}
