// Package service implements broadcasting schedules and the airing
// gate: an episode airs only when every readiness criterion passes.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	approvalsvc "studio_production_backend/internal/approval/service"
	"studio_production_backend/internal/broadcast/repository"
	episodedomain "studio_production_backend/internal/episode/domain"
	episodetransport "studio_production_backend/internal/episode/transport"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

// Access is the slice of the identity resolver the broadcast service needs.
type Access interface {
	Authorize(ctx context.Context, userID, episodeID uuid.UUID, role identitydomain.RoleTag) error
	AuthorizeOwnership(ctx context.Context, userID, episodeID uuid.UUID) error
	RequireManagerProgram(ctx context.Context, userID uuid.UUID) error
}

// Readiness evaluates the airing criteria.
type Readiness interface {
	CheckReadiness(ctx context.Context, episodeID uuid.UUID) (episodetransport.ReadinessResponse, error)
}

// Stages moves the episode stage inside the airing transaction.
type Stages interface {
	EnsureStageAtLeastIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, to episodedomain.Stage, ownerRole, reason string, actorID uuid.UUID) error
}

// Pool is the database handle the service runs guarded writes and
// transactions on; satisfied by *pgxpool.Pool.
type Pool interface {
	db.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service provides broadcasting business logic.
type Service struct {
	repo      repository.Repository
	pool      Pool
	access    Access
	readiness Readiness
	stages    Stages
	log       *logger.Logger
}

// New creates a new broadcast service.
func New(repo repository.Repository, pool Pool, access Access, readiness Readiness, stages Stages, log *logger.Logger) *Service {
	return &Service{repo: repo, pool: pool, access: access, readiness: readiness, stages: stages, log: log}
}

// CreateOrMergeIn creates the episode's broadcasting schedule, or folds
// the new slot into the open one, inside the caller's transaction. The
// approval module calls this when a schedule option is approved.
func (s *Service) CreateOrMergeIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slot approvalsvc.ScheduleSlot, actorID uuid.UUID) error {
	merged, err := s.repo.MergeSlotIn(ctx, q, episodeID, slot.SlotDate, slot.SlotTime, slot.Channel)
	if err != nil {
		return err
	}
	if merged {
		return nil
	}

	schedule, err := s.repo.CreateScheduleIn(ctx, q, episodeID, slot.SlotDate, slot.SlotTime, slot.Channel, actorID)
	if err != nil {
		return err
	}
	_, err = s.repo.CreateWorkIn(ctx, q, episodeID, schedule.ID, actorID)
	return err
}

// GetByEpisode returns the episode's schedule and airing task.
func (s *Service) GetByEpisode(ctx context.Context, episodeID uuid.UUID) (repository.Schedule, *repository.Work, error) {
	schedule, err := s.repo.GetScheduleByEpisode(ctx, episodeID)
	if err != nil {
		return repository.Schedule{}, nil, err
	}
	work, err := s.repo.GetWorkByEpisode(ctx, episodeID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return schedule, nil, nil
		}
		return repository.Schedule{}, nil, err
	}
	return schedule, &work, nil
}

// Confirm locks the schedule slot (broadcasting role or manager).
func (s *Service) Confirm(ctx context.Context, actorID, scheduleID uuid.UUID) error {
	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.authorizeBroadcast(ctx, actorID, schedule.EpisodeID); err != nil {
		return err
	}

	ok, err := s.repo.UpdateScheduleStatusGuarded(ctx, s.pool, schedule.ID, repository.ScheduleDraft, repository.ScheduleConfirmed)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("schedule is not in draft")
	}
	return nil
}

// Prepare moves the airing task into preparation (broadcasting role).
func (s *Service) Prepare(ctx context.Context, actorID, workID uuid.UUID) error {
	work, err := s.repo.GetWork(ctx, workID)
	if err != nil {
		return err
	}
	if work.Status != repository.WorkPending {
		return apperr.Conflict(fmt.Sprintf("broadcast work is %s, not pending", work.Status))
	}
	if err := s.authorizeBroadcast(ctx, actorID, work.EpisodeID); err != nil {
		return err
	}

	ok, err := s.repo.UpdateWorkStatusGuarded(ctx, s.pool, workID, repository.WorkPending, repository.WorkPreparing, &actorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("broadcast work status changed concurrently")
	}
	return nil
}

// Air marks the episode aired. The readiness report gates the move:
// every criterion must pass, and the full missing list is returned when
// any does not. Schedule, work, and episode stage commit together.
func (s *Service) Air(ctx context.Context, actorID, workID uuid.UUID) error {
	work, err := s.repo.GetWork(ctx, workID)
	if err != nil {
		return err
	}
	if work.Status != repository.WorkPreparing {
		return apperr.Conflict(fmt.Sprintf("broadcast work is %s, not preparing", work.Status))
	}
	if err := s.authorizeBroadcast(ctx, actorID, work.EpisodeID); err != nil {
		return err
	}

	report, err := s.readiness.CheckReadiness(ctx, work.EpisodeID)
	if err != nil {
		return err
	}
	if !report.IsReady {
		return apperr.Validation("episode is not ready to air").
			WithDetails(map[string]any{"missing": report.Missing})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin airing: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := s.repo.UpdateWorkStatusGuarded(ctx, tx, workID, repository.WorkPreparing, repository.WorkAired, nil)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("broadcast work status changed concurrently")
	}

	ok, err = s.repo.UpdateScheduleStatusGuarded(ctx, tx, work.ScheduleID, repository.ScheduleConfirmed, repository.ScheduleAired)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("schedule is not confirmed")
	}

	if err := s.stages.EnsureStageAtLeastIn(ctx, tx, work.EpisodeID,
		episodedomain.StageAired, string(identitydomain.RoleBroadcasting),
		"episode aired", actorID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit airing: %w", err)
	}

	s.log.Info("episode aired", "episode", work.EpisodeID, "by", actorID)
	return nil
}

func (s *Service) authorizeBroadcast(ctx context.Context, actorID, episodeID uuid.UUID) error {
	if err := s.access.Authorize(ctx, actorID, episodeID, identitydomain.RoleBroadcasting); err == nil {
		return nil
	}
	if err := s.access.AuthorizeOwnership(ctx, actorID, episodeID); err == nil {
		return nil
	}
	return s.access.RequireManagerProgram(ctx, actorID)
}
