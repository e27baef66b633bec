// Package service implements the approval escalation flow: requests
// for cross-role decisions and the cascades their approval triggers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
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

// Access is the slice of the identity resolver the approval service needs.
type Access interface {
	RequireManagerProgram(ctx context.Context, userID uuid.UUID) error
	RequireGlobalRole(ctx context.Context, userID uuid.UUID, role string) error
	GlobalRoleHolders(ctx context.Context, role string) ([]uuid.UUID, error)
}

// ScheduleSlot is the broadcast slot carried by a schedule option.
type ScheduleSlot struct {
	SlotDate *time.Time
	SlotTime *string
	Channel  *string
}

// ScheduleSink creates or merges the broadcasting schedule an approved
// schedule option targets, inside the review transaction.
type ScheduleSink interface {
	CreateOrMergeIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slot ScheduleSlot, actorID uuid.UUID) error
}

// SeasonGenerator bulk-creates a program's episodes for a year.
type SeasonGenerator interface {
	GenerateYear(ctx context.Context, actorID uuid.UUID, req episodetransport.GenerateYearRequest) (episodetransport.GenerateYearResponse, error)
}

// Notifier persists notification records, best-effort.
type Notifier interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, ntype, title, message string, data map[string]any, episodeID *uuid.UUID)
}

// TxBeginner starts transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service provides approval business logic.
type Service struct {
	repo      repository.Repository
	pool      TxBeginner
	access    Access
	schedules ScheduleSink
	seasons   SeasonGenerator
	notifier  Notifier
	log       *logger.Logger
}

// New creates a new approval service.
func New(repo repository.Repository, pool TxBeginner, access Access, schedules ScheduleSink, seasons SeasonGenerator, notifier Notifier, log *logger.Logger) *Service {
	return &Service{repo: repo, pool: pool, access: access, schedules: schedules, seasons: seasons, notifier: notifier, log: log}
}

// RequestBudgetIn files a pending budget request inside the caller's
// transaction. The creative-work approve cascade calls this.
func (s *Service) RequestBudgetIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, amount int64, requestedBy uuid.UUID) error {
	data, err := json.Marshal(map[string]any{"requestedAmount": amount})
	if err != nil {
		return fmt.Errorf("marshal budget request: %w", err)
	}
	_, err = s.repo.CreateIn(ctx, q, repository.CreateParams{
		ApprovableType: repository.TypeBudgetRequest,
		EpisodeID:      &episodeID,
		RequestedBy:    requestedBy,
		RequestData:    data,
	})
	return err
}

// RequestScheduleOption files a schedule-option escalation for the
// distribution manager to review (Manager Program only).
func (s *Service) RequestScheduleOption(ctx context.Context, actorID uuid.UUID, req transport.RequestScheduleOptionRequest) (transport.ApprovalResponse, error) {
	if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
		return transport.ApprovalResponse{}, err
	}
	if req.EpisodeID == nil && (req.ProgramID == nil || req.Year == nil) {
		return transport.ApprovalResponse{}, apperr.Validation("schedule option needs an episode or a program and year")
	}

	data, err := json.Marshal(req.ScheduleOptionData)
	if err != nil {
		return transport.ApprovalResponse{}, fmt.Errorf("marshal schedule option: %w", err)
	}

	approval, err := s.repo.Create(ctx, repository.CreateParams{
		ApprovableType: repository.TypeScheduleOption,
		EpisodeID:      req.EpisodeID,
		ProgramID:      req.ProgramID,
		RequestedBy:    actorID,
		RequestData:    data,
	})
	if err != nil {
		return transport.ApprovalResponse{}, err
	}

	reviewers, err := s.access.GlobalRoleHolders(ctx, identitydomain.GlobalDistributionManager)
	if err == nil {
		s.notifier.Notify(ctx, reviewers, "schedule_option_requested", "Schedule option awaiting review",
			"A program manager requested a broadcast schedule option.",
			map[string]any{"approvalId": approval.ID}, approval.EpisodeID)
	}

	return toResponse(approval), nil
}

// Get returns one approval.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ApprovalResponse, error) {
	approval, err := s.repo.Get(ctx, id)
	if err != nil {
		return transport.ApprovalResponse{}, err
	}
	return toResponse(approval), nil
}

// ListPending returns pending approvals for a reviewer.
func (s *Service) ListPending(ctx context.Context, actorID uuid.UUID, approvableType string) ([]transport.ApprovalResponse, error) {
	if err := s.access.RequireGlobalRole(ctx, actorID, identitydomain.GlobalDistributionManager); err != nil {
		if mgrErr := s.access.RequireManagerProgram(ctx, actorID); mgrErr != nil {
			return nil, err
		}
	}

	approvals, err := s.repo.ListPending(ctx, approvableType)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, toResponse(a))
	}
	return out, nil
}

// Review records the decision. Schedule options are decided by the
// distribution manager; budget requests by the program manager. An
// approved schedule option creates or merges the broadcasting schedule
// in the same transaction and, for a season-wide option, generates the
// year's episodes afterwards.
func (s *Service) Review(ctx context.Context, actorID, approvalID uuid.UUID, req transport.ReviewRequest) (transport.ApprovalResponse, error) {
	approval, err := s.repo.Get(ctx, approvalID)
	if err != nil {
		return transport.ApprovalResponse{}, err
	}
	if approval.Status != repository.StatusPending {
		return transport.ApprovalResponse{}, apperr.Conflict("approval already reviewed")
	}

	switch approval.ApprovableType {
	case repository.TypeScheduleOption:
		if err := s.access.RequireGlobalRole(ctx, actorID, identitydomain.GlobalDistributionManager); err != nil {
			return transport.ApprovalResponse{}, err
		}
	default:
		if err := s.access.RequireManagerProgram(ctx, actorID); err != nil {
			return transport.ApprovalResponse{}, err
		}
	}

	status := repository.StatusApproved
	if req.Decision == "reject" {
		status = repository.StatusRejected
	}
	var notes *string
	if req.Notes != "" {
		n := req.Notes
		notes = &n
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return transport.ApprovalResponse{}, fmt.Errorf("begin review: %w", err)
	}
	defer tx.Rollback(ctx)

	decided, err := s.repo.ReviewGuarded(ctx, tx, approvalID, actorID, status, notes)
	if err != nil {
		return transport.ApprovalResponse{}, err
	}
	if !decided {
		return transport.ApprovalResponse{}, apperr.Conflict("approval was reviewed concurrently")
	}

	var option transport.ScheduleOptionData
	if approval.ApprovableType == repository.TypeScheduleOption {
		if err := json.Unmarshal(approval.RequestData, &option); err != nil {
			return transport.ApprovalResponse{}, fmt.Errorf("unmarshal schedule option: %w", err)
		}
		if status == repository.StatusApproved && option.EpisodeID != nil {
			slot := ScheduleSlot{SlotDate: option.SlotDate, SlotTime: option.SlotTime, Channel: option.Channel}
			if err := s.schedules.CreateOrMergeIn(ctx, tx, *option.EpisodeID, slot, actorID); err != nil {
				return transport.ApprovalResponse{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return transport.ApprovalResponse{}, fmt.Errorf("commit review: %w", err)
	}

	if status == repository.StatusApproved && approval.ApprovableType == repository.TypeScheduleOption &&
		option.ProgramID != nil && option.Year != nil {
		s.generateSeason(ctx, approval.RequestedBy, option)
	}

	s.notifier.Notify(ctx, []uuid.UUID{approval.RequestedBy}, "approval_"+status,
		"Your request was "+status,
		fmt.Sprintf("Your %s request was %s.", approval.ApprovableType, status),
		map[string]any{"approvalId": approval.ID}, approval.EpisodeID)

	decidedApproval, err := s.repo.Get(ctx, approvalID)
	if err != nil {
		return transport.ApprovalResponse{}, err
	}
	return toResponse(decidedApproval), nil
}

// generateSeason runs the year generation on behalf of the requesting
// manager. A conflict means the year already exists; that is the
// idempotent success path for a re-reviewed option.
func (s *Service) generateSeason(ctx context.Context, requestedBy uuid.UUID, option transport.ScheduleOptionData) {
	weekday := time.Saturday
	if option.Weekday != nil {
		weekday = time.Weekday(*option.Weekday)
	}
	stem := "Episode"
	if option.TitleStem != nil && *option.TitleStem != "" {
		stem = *option.TitleStem
	}

	_, err := s.seasons.GenerateYear(ctx, requestedBy, episodetransport.GenerateYearRequest{
		ProgramID: *option.ProgramID,
		Year:      *option.Year,
		Weekday:   weekday,
		TitleStem: stem,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return
		}
		s.log.Error("season generation after schedule approval failed",
			"program", *option.ProgramID, "year", *option.Year, "error", err)
	}
}

func toResponse(a repository.Approval) transport.ApprovalResponse {
	resp := transport.ApprovalResponse{
		ID:             a.ID,
		ApprovableType: a.ApprovableType,
		ApprovableID:   a.ApprovableID,
		EpisodeID:      a.EpisodeID,
		ProgramID:      a.ProgramID,
		RequestedBy:    a.RequestedBy,
		Status:         a.Status,
		ReviewedBy:     a.ReviewedBy,
		ReviewedAt:     a.ReviewedAt,
		ReviewNotes:    a.ReviewNotes,
		CreatedAt:      a.CreatedAt,
	}
	if len(a.RequestData) > 0 {
		var data map[string]any
		if err := json.Unmarshal(a.RequestData, &data); err == nil {
			resp.RequestData = data
		}
	}
	return resp
}
