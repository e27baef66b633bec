// Package service implements deadline generation, audited edits, and
// completion.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studio_production_backend/internal/deadline/repository"
	"studio_production_backend/internal/deadline/transport"
	episodesvc "studio_production_backend/internal/episode/service"
	"studio_production_backend/internal/events"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
)

// offsets is the number of days before air date each role's work is due.
// Every entry must stay positive so a generated deadline always precedes
// the air date.
var offsets = map[identitydomain.RoleTag]int{
	identitydomain.RoleCreative:          45,
	identitydomain.RoleMusicArranger:     40,
	identitydomain.RoleArtSet:            30,
	identitydomain.RoleDesign:            30,
	identitydomain.RoleSoundEngineer:     25,
	identitydomain.RoleProductionSupport: 21,
	identitydomain.RoleEditor:            14,
	identitydomain.RolePromotion:         10,
	identitydomain.RoleQualityControl:    7,
	identitydomain.RoleBroadcasting:      2,
	identitydomain.RoleProducer:          1,
}

// Offset returns the configured lead time in days for a role.
func Offset(role identitydomain.RoleTag) (int, bool) {
	days, ok := offsets[role]
	return days, ok
}

// Access is the slice of the identity resolver the deadline service needs.
type Access interface {
	RequireManagerProgram(ctx context.Context, userID uuid.UUID) error
	Authorize(ctx context.Context, userID, episodeID uuid.UUID, role identitydomain.RoleTag) error
}

// TxBeginner starts transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service provides deadline business logic.
type Service struct {
	repo   repository.Repository
	pool   TxBeginner
	access Access
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new deadline service.
func New(repo repository.Repository, pool TxBeginner, access Access, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, pool: pool, access: access, bus: bus, log: log}
}

// GenerateForEpisodeIn creates one deadline per pipeline role, each
// offset back from the air date, inside the caller's transaction.
func (s *Service) GenerateForEpisodeIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, airDate time.Time) ([]episodesvc.GeneratedDeadline, error) {
	roles := identitydomain.PipelineRoles()
	generated := make([]episodesvc.GeneratedDeadline, 0, len(roles))
	for _, role := range roles {
		days := offsets[role]
		deadline, err := s.repo.InsertIn(ctx, q, repository.InsertParams{
			EpisodeID:    episodeID,
			Role:         string(role),
			Title:        fmt.Sprintf("%s delivery", identitydomain.DisplayName(role)),
			DeadlineDate: airDate.AddDate(0, 0, -days),
		})
		if err != nil {
			return nil, err
		}
		generated = append(generated, episodesvc.GeneratedDeadline{
			ID:   deadline.ID,
			Role: deadline.Role,
			Date: deadline.DeadlineDate,
		})
	}
	return generated, nil
}

// ListByEpisode returns an episode's deadlines in due order.
func (s *Service) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]transport.DeadlineResponse, error) {
	deadlines, err := s.repo.ListByEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.DeadlineResponse, 0, len(deadlines))
	for _, d := range deadlines {
		out = append(out, toResponse(d))
	}
	return out, nil
}

// Revisions returns the audit trail for one deadline.
func (s *Service) Revisions(ctx context.Context, deadlineID uuid.UUID) ([]transport.RevisionResponse, error) {
	if _, err := s.repo.Get(ctx, deadlineID); err != nil {
		return nil, err
	}
	revisions, err := s.repo.ListRevisions(ctx, deadlineID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RevisionResponse, 0, len(revisions))
	for _, rev := range revisions {
		out = append(out, transport.RevisionResponse{
			ID:           rev.ID,
			PreviousDate: rev.PreviousDate,
			NewDate:      rev.NewDate,
			Reason:       rev.Reason,
			ChangedBy:    rev.ChangedBy,
			ChangedAt:    rev.ChangedAt,
		})
	}
	return out, nil
}

// Edit moves a deadline to a new date (Manager Program only). The
// original date is preserved in a revision row written in the same
// transaction, never overwritten silently.
func (s *Service) Edit(ctx context.Context, actorID, deadlineID uuid.UUID, req transport.EditDeadlineRequest) (transport.DeadlineResponse, error) {
	if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
		return transport.DeadlineResponse{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return transport.DeadlineResponse{}, fmt.Errorf("begin edit deadline: %w", err)
	}
	defer tx.Rollback(ctx)

	deadline, err := s.repo.GetIn(ctx, tx, deadlineID)
	if err != nil {
		return transport.DeadlineResponse{}, err
	}
	if deadline.DeadlineDate.Equal(req.NewDate) {
		return transport.DeadlineResponse{}, apperr.Validation("new date equals the current deadline date")
	}

	if err := s.repo.InsertRevisionIn(ctx, tx, repository.RevisionParams{
		DeadlineID:   deadline.ID,
		PreviousDate: deadline.DeadlineDate,
		NewDate:      req.NewDate,
		Reason:       req.Reason,
		ChangedBy:    actorID,
	}); err != nil {
		return transport.DeadlineResponse{}, err
	}
	if err := s.repo.UpdateDateIn(ctx, tx, deadline.ID, req.NewDate); err != nil {
		return transport.DeadlineResponse{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return transport.DeadlineResponse{}, fmt.Errorf("commit edit deadline: %w", err)
	}

	s.bus.Publish(ctx, events.DeadlineRescheduled{
		BaseEvent:  events.NewBaseEvent(),
		DeadlineID: deadline.ID,
		EpisodeID:  deadline.EpisodeID,
		Role:       deadline.Role,
		NewDate:    req.NewDate,
	})
	s.log.Info("deadline rescheduled", "id", deadline.ID, "episode", deadline.EpisodeID, "newDate", req.NewDate, "by", actorID)

	deadline.DeadlineDate = req.NewDate
	return toResponse(deadline), nil
}

// Complete marks a deadline done. The actor must hold the deadline's
// role in the episode's resolved team, or be Manager Program.
func (s *Service) Complete(ctx context.Context, actorID, deadlineID uuid.UUID) (transport.DeadlineResponse, error) {
	deadline, err := s.repo.Get(ctx, deadlineID)
	if err != nil {
		return transport.DeadlineResponse{}, err
	}
	if deadline.IsCompleted {
		return transport.DeadlineResponse{}, apperr.Conflict("deadline already completed")
	}

	role, err := identitydomain.ParseRoleTag(deadline.Role)
	if err != nil {
		return transport.DeadlineResponse{}, apperr.Wrap(apperr.KindInternal, "deadline carries unknown role", err)
	}
	if err := s.access.Authorize(ctx, actorID, deadline.EpisodeID, role); err != nil {
		if mgrErr := s.access.RequireManagerProgram(ctx, actorID); mgrErr != nil {
			return transport.DeadlineResponse{}, err
		}
	}

	ok, err := s.repo.MarkCompletedGuarded(ctx, deadlineID, actorID)
	if err != nil {
		return transport.DeadlineResponse{}, err
	}
	if !ok {
		return transport.DeadlineResponse{}, apperr.Conflict("deadline already completed")
	}

	return s.toCompleted(ctx, deadlineID)
}

func (s *Service) toCompleted(ctx context.Context, deadlineID uuid.UUID) (transport.DeadlineResponse, error) {
	deadline, err := s.repo.Get(ctx, deadlineID)
	if err != nil {
		return transport.DeadlineResponse{}, err
	}
	return toResponse(deadline), nil
}

func toResponse(d repository.Deadline) transport.DeadlineResponse {
	return transport.DeadlineResponse{
		ID:           d.ID,
		EpisodeID:    d.EpisodeID,
		Role:         d.Role,
		Title:        d.Title,
		DeadlineDate: d.DeadlineDate,
		IsCompleted:  d.IsCompleted,
		CompletedBy:  d.CompletedBy,
		CompletedAt:  d.CompletedAt,
	}
}
