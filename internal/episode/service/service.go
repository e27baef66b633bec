// Package service implements episode lifecycle, the stage tracker, bulk
// generation, and the readiness evaluation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"studio_production_backend/internal/episode/domain"
	"studio_production_backend/internal/episode/repository"
	"studio_production_backend/internal/episode/transport"
	"studio_production_backend/internal/events"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

// Access is the slice of the identity resolver the episode service needs.
type Access interface {
	RequireManagerProgram(ctx context.Context, userID uuid.UUID) error
	AuthorizeOwnership(ctx context.Context, userID, episodeID uuid.UUID) error
}

// GeneratedDeadline reports one deadline created during episode creation.
type GeneratedDeadline struct {
	ID   uuid.UUID
	Role string
	Date time.Time
}

// DeadlineGenerator materializes the per-role deadlines for a new
// episode inside the caller's transaction.
type DeadlineGenerator interface {
	GenerateForEpisodeIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, airDate time.Time) ([]GeneratedDeadline, error)
}

// TxBeginner starts transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service provides episode business logic.
type Service struct {
	repo      repository.Repository
	pool      TxBeginner
	access    Access
	deadlines DeadlineGenerator
	bus       events.Bus
	log       *logger.Logger
}

// New creates a new episode service.
func New(repo repository.Repository, pool TxBeginner, access Access, deadlines DeadlineGenerator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, pool: pool, access: access, deadlines: deadlines, bus: bus, log: log}
}

// CreateProgram creates a program (manager only).
func (s *Service) CreateProgram(ctx context.Context, actorID uuid.UUID, req transport.CreateProgramRequest) (repository.Program, error) {
	if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
		return repository.Program{}, err
	}
	return s.repo.CreateProgram(ctx, req.Name, actorID)
}

// CreateEpisode creates one episode and its per-role deadlines in a
// single transaction (manager only).
func (s *Service) CreateEpisode(ctx context.Context, actorID uuid.UUID, req transport.CreateEpisodeRequest) (transport.EpisodeResponse, error) {
	if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
		return transport.EpisodeResponse{}, err
	}
	if _, err := s.repo.GetProgram(ctx, req.ProgramID); err != nil {
		return transport.EpisodeResponse{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return transport.EpisodeResponse{}, fmt.Errorf("begin create episode: %w", err)
	}
	defer tx.Rollback(ctx)

	episode, err := s.repo.CreateEpisode(ctx, tx, repository.CreateEpisodeParams{
		ProgramID:     req.ProgramID,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		AirDate:       req.AirDate,
		CreatedBy:     actorID,
	})
	if err != nil {
		return transport.EpisodeResponse{}, err
	}

	generated, err := s.deadlines.GenerateForEpisodeIn(ctx, tx, episode.ID, episode.AirDate)
	if err != nil {
		return transport.EpisodeResponse{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return transport.EpisodeResponse{}, fmt.Errorf("commit create episode: %w", err)
	}

	s.publishEpisodeCreated(ctx, episode, generated)
	s.log.Info("episode created", "id", episode.ID, "program", episode.ProgramID, "airDate", episode.AirDate)

	return toEpisodeResponse(episode), nil
}

// GenerateYear bulk-creates a program's weekly episodes for a year. The
// whole batch commits atomically; a failing insert leaves no orphans.
// Guarded by a pre-check count so re-running the generation for the same
// year is a conflict, not a duplicate season.
func (s *Service) GenerateYear(ctx context.Context, actorID uuid.UUID, req transport.GenerateYearRequest) (transport.GenerateYearResponse, error) {
	if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
		return transport.GenerateYearResponse{}, err
	}
	if _, err := s.repo.GetProgram(ctx, req.ProgramID); err != nil {
		return transport.GenerateYearResponse{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return transport.GenerateYearResponse{}, fmt.Errorf("begin generate year: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.repo.CountEpisodesInYear(ctx, tx, req.ProgramID, req.Year)
	if err != nil {
		return transport.GenerateYearResponse{}, err
	}
	if existing > 0 {
		return transport.GenerateYearResponse{}, apperr.Conflict(
			fmt.Sprintf("program already has %d episodes in %d", existing, req.Year))
	}

	type createdEpisode struct {
		episode   repository.Episode
		deadlines []GeneratedDeadline
	}

	var created []createdEpisode
	number := 1
	for airDate := firstWeekday(req.Year, req.Weekday); airDate.Year() == req.Year; airDate = airDate.AddDate(0, 0, 7) {
		episode, err := s.repo.CreateEpisode(ctx, tx, repository.CreateEpisodeParams{
			ProgramID:     req.ProgramID,
			EpisodeNumber: number,
			Title:         fmt.Sprintf("%s #%d", req.TitleStem, number),
			AirDate:       airDate,
			CreatedBy:     actorID,
		})
		if err != nil {
			return transport.GenerateYearResponse{}, err
		}

		generated, err := s.deadlines.GenerateForEpisodeIn(ctx, tx, episode.ID, episode.AirDate)
		if err != nil {
			return transport.GenerateYearResponse{}, err
		}

		created = append(created, createdEpisode{episode: episode, deadlines: generated})
		number++
	}

	if err := tx.Commit(ctx); err != nil {
		return transport.GenerateYearResponse{}, fmt.Errorf("commit generate year: %w", err)
	}

	resp := transport.GenerateYearResponse{ProgramID: req.ProgramID, Year: req.Year}
	for _, c := range created {
		s.publishEpisodeCreated(ctx, c.episode, c.deadlines)
		resp.Episodes = append(resp.Episodes, toEpisodeResponse(c.episode))
	}

	s.log.Info("year generated", "program", req.ProgramID, "year", req.Year, "episodes", len(created))
	return resp, nil
}

// Get retrieves one episode.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.EpisodeResponse, error) {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return transport.EpisodeResponse{}, err
	}
	return toEpisodeResponse(episode), nil
}

// ListByProgram retrieves a program's episodes in airing order.
func (s *Service) ListByProgram(ctx context.Context, programID uuid.UUID) ([]transport.EpisodeResponse, error) {
	episodes, err := s.repo.ListEpisodesByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.EpisodeResponse, 0, len(episodes))
	for _, e := range episodes {
		out = append(out, toEpisodeResponse(e))
	}
	return out, nil
}

// StageLogs retrieves an episode's stage history.
func (s *Service) StageLogs(ctx context.Context, episodeID uuid.UUID) ([]transport.StageLogResponse, error) {
	logs, err := s.repo.ListStageLogs(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.StageLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, transport.StageLogResponse{
			ID:         l.ID,
			FromStage:  string(l.FromStage),
			ToStage:    string(l.ToStage),
			OwnerRole:  l.OwnerRole,
			AssignedTo: l.AssignedTo,
			Reason:     l.Reason,
			CreatedBy:  l.CreatedBy,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out, nil
}

// SetRundown attaches the rundown file key (producer or manager).
func (s *Service) SetRundown(ctx context.Context, actorID, episodeID uuid.UUID, fileKey string) error {
	if err := s.access.AuthorizeOwnership(ctx, actorID, episodeID); err != nil {
		if mgrErr := s.access.RequireManagerProgram(ctx, actorID); mgrErr != nil {
			return err
		}
	}
	return s.repo.SetRundown(ctx, episodeID, fileKey)
}

// AdvanceStage performs an explicit stage transition (producer or
// manager). Illegal edges are rejected; the write is status-guarded.
func (s *Service) AdvanceStage(ctx context.Context, actorID, episodeID uuid.UUID, req transport.AdvanceStageRequest) error {
	episode, err := s.repo.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}

	to, err := domain.ParseStage(req.ToStage)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	if !domain.CanTransition(episode.CurrentStage, to) {
		return apperr.Conflict(fmt.Sprintf("cannot move episode from %s to %s", episode.CurrentStage, to))
	}

	if err := s.access.AuthorizeOwnership(ctx, actorID, episodeID); err != nil {
		if mgrErr := s.access.RequireManagerProgram(ctx, actorID); mgrErr != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin advance stage: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.moveStage(ctx, tx, episode, to, req.OwnerRole, req.AssignedTo, req.Reason, actorID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit advance stage: %w", err)
	}

	s.publishStageChanged(ctx, episodeID, episode.CurrentStage, to, req.Reason)
	return nil
}

// EnsureStageAtLeastIn advances the episode inside the caller's
// transaction, but only forward: when the episode already reached the
// target stage (re-fired cascade, parallel approvals) it is a no-op.
func (s *Service) EnsureStageAtLeastIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, to domain.Stage, ownerRole, reason string, actorID uuid.UUID) error {
	episode, err := s.repo.GetEpisodeIn(ctx, q, episodeID)
	if err != nil {
		return err
	}
	if domain.Rank(to) <= domain.Rank(episode.CurrentStage) {
		return nil
	}
	return s.moveStage(ctx, q, episode, to, ownerRole, nil, reason, actorID)
}

// RevertStageIn performs an explicit revision move (QC failure) inside
// the caller's transaction.
func (s *Service) RevertStageIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, to domain.Stage, ownerRole, reason string, actorID uuid.UUID) error {
	episode, err := s.repo.GetEpisodeIn(ctx, q, episodeID)
	if err != nil {
		return err
	}
	if !domain.IsRevision(episode.CurrentStage, to) {
		return apperr.Conflict(fmt.Sprintf("no revision edge from %s to %s", episode.CurrentStage, to))
	}
	return s.moveStage(ctx, q, episode, to, ownerRole, nil, reason, actorID)
}

func (s *Service) moveStage(ctx context.Context, q db.Querier, episode repository.Episode, to domain.Stage, ownerRole string, assignedTo *uuid.UUID, reason string, actorID uuid.UUID) error {
	ok, err := s.repo.UpdateStageGuarded(ctx, q, episode.ID, episode.CurrentStage, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("episode stage changed concurrently")
	}

	if err := s.repo.InsertStageLog(ctx, q, repository.StageLogParams{
		EpisodeID:  episode.ID,
		FromStage:  episode.CurrentStage,
		ToStage:    to,
		OwnerRole:  ownerRole,
		AssignedTo: assignedTo,
		Reason:     reason,
		CreatedBy:  actorID,
	}); err != nil {
		return err
	}

	s.log.StageTransition(episode.ID.String(), string(episode.CurrentStage), string(to), reason)
	return nil
}

// readinessCriteria fixes the evaluation order of the readiness report.
var readinessCriteria = []struct {
	key   string
	label string
	fact  repository.WorkItemFact
}{
	{"music_arrangement", "Music arrangement approved", repository.FactArrangementApproved},
	{"creative_work", "Creative work approved", repository.FactCreativeWorkApproved},
	{"sound_editing", "Sound editing approved", repository.FactSoundEditingApproved},
	{"editor_work", "Editor work approved", repository.FactEditorWorkApproved},
	{"quality_control", "Quality control approved", repository.FactQCApproved},
}

// CheckReadiness evaluates the eight airing criteria without mutating
// anything. Every criterion is always evaluated; the report lists all
// missing items rather than failing on the first.
func (s *Service) CheckReadiness(ctx context.Context, episodeID uuid.UUID) (transport.ReadinessResponse, error) {
	episode, err := s.repo.GetEpisode(ctx, episodeID)
	if err != nil {
		return transport.ReadinessResponse{}, err
	}

	results := make([]transport.CriterionResult, len(readinessCriteria)+3)
	results[0] = transport.CriterionResult{
		Key:   "status_ready_to_air",
		Label: "Episode at ready-to-air stage",
		Ready: episode.CurrentStage == domain.StageReadyToAir,
	}
	results[1] = transport.CriterionResult{
		Key:   "rundown",
		Label: "Rundown attached",
		Ready: episode.RundownFileKey != nil && *episode.RundownFileKey != "",
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		done, err := s.repo.DeadlinesAllCompleted(gctx, episodeID)
		if err != nil {
			return err
		}
		results[2] = transport.CriterionResult{Key: "deadlines", Label: "All deadlines completed", Ready: done}
		return nil
	})

	for i, criterion := range readinessCriteria {
		g.Go(func() error {
			ok, err := s.repo.HasWorkItemFact(gctx, episodeID, criterion.fact)
			if err != nil {
				return err
			}
			results[3+i] = transport.CriterionResult{Key: criterion.key, Label: criterion.label, Ready: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return transport.ReadinessResponse{}, err
	}

	resp := transport.ReadinessResponse{EpisodeID: episodeID, IsReady: true, Criteria: results}
	for _, c := range results {
		if !c.Ready {
			resp.IsReady = false
			resp.Missing = append(resp.Missing, c.Key)
		}
	}
	return resp, nil
}

func (s *Service) publishEpisodeCreated(ctx context.Context, episode repository.Episode, deadlines []GeneratedDeadline) {
	s.bus.Publish(ctx, events.EpisodeCreated{
		BaseEvent: events.NewBaseEvent(),
		EpisodeID: episode.ID,
		ProgramID: episode.ProgramID,
		Title:     episode.Title,
		AirDate:   episode.AirDate,
		CreatedBy: episode.CreatedBy,
	})

	due := make([]events.DeadlineDue, 0, len(deadlines))
	for _, d := range deadlines {
		due = append(due, events.DeadlineDue{DeadlineID: d.ID, Role: d.Role, Date: d.Date})
	}
	s.bus.Publish(ctx, events.DeadlinesGenerated{
		BaseEvent: events.NewBaseEvent(),
		EpisodeID: episode.ID,
		Deadlines: due,
	})
}

func (s *Service) publishStageChanged(ctx context.Context, episodeID uuid.UUID, from, to domain.Stage, reason string) {
	s.bus.Publish(ctx, events.EpisodeStageChanged{
		BaseEvent: events.NewBaseEvent(),
		EpisodeID: episodeID,
		FromStage: string(from),
		ToStage:   string(to),
		Reason:    reason,
	})
}

func firstWeekday(year int, weekday time.Weekday) time.Time {
	date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for date.Weekday() != weekday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func toEpisodeResponse(e repository.Episode) transport.EpisodeResponse {
	return transport.EpisodeResponse{
		ID:             e.ID,
		ProgramID:      e.ProgramID,
		EpisodeNumber:  e.EpisodeNumber,
		Title:          e.Title,
		AirDate:        e.AirDate,
		CurrentStage:   string(e.CurrentStage),
		RundownFileKey: e.RundownFileKey,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
	}
}
