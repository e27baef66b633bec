// Package service implements the identity and membership resolver: the
// single authority on who may act on an episode's work items.
package service

import (
	"context"

	"github.com/google/uuid"

	"studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/identity/repository"
	"studio_production_backend/internal/identity/transport"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/logger"
)

const (
	msgNotTeamMember  = "not an active team member with the required role"
	msgNotTeamOwner   = "producer ownership of the team required"
	msgManagerOnly    = "manager program role required"
	msgNoTeamResolved = "no production team resolved for episode"
)

// Service provides team resolution and authorization. Every other module
// consumes authorization through this service; none re-implements the
// episode-team-else-program-team fallback.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new identity service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ResolveTeam returns the authorization scope for an episode.
func (s *Service) ResolveTeam(ctx context.Context, episodeID uuid.UUID) (repository.Team, error) {
	return s.repo.GetTeamForEpisode(ctx, episodeID)
}

// Authorize checks that the user is an active member of the episode's
// resolved team holding the given role. Fails closed: an unresolved team
// yields Forbidden, never a silent pass.
func (s *Service) Authorize(ctx context.Context, userID, episodeID uuid.UUID, role domain.RoleTag) error {
	team, err := s.repo.GetTeamForEpisode(ctx, episodeID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Forbidden(msgNoTeamResolved)
		}
		return err
	}

	// The producer who owns the team passes any role check for it.
	if team.ProducerID == userID {
		return nil
	}

	ok, err := s.repo.IsActiveMember(ctx, team.ID, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(msgNotTeamMember)
	}
	return nil
}

// AuthorizeOwnership checks that the user is the producer owning the
// episode's resolved team.
func (s *Service) AuthorizeOwnership(ctx context.Context, userID, episodeID uuid.UUID) error {
	team, err := s.repo.GetTeamForEpisode(ctx, episodeID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Forbidden(msgNoTeamResolved)
		}
		return err
	}
	if team.ProducerID != userID {
		return apperr.Forbidden(msgNotTeamOwner)
	}
	return nil
}

// RequireManagerProgram checks the global manager role.
func (s *Service) RequireManagerProgram(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Forbidden(msgManagerOnly)
		}
		return err
	}
	if user.Role != domain.GlobalManagerProgram {
		return apperr.Forbidden(msgManagerOnly)
	}
	return nil
}

// RequireGlobalRole checks that the user carries the given global role.
func (s *Service) RequireGlobalRole(ctx context.Context, userID uuid.UUID, role string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Forbidden("required role missing")
		}
		return err
	}
	if user.Role != role {
		return apperr.Forbidden("required role missing")
	}
	return nil
}

// ActiveMembers returns the user IDs of active role holders in the
// episode's resolved team. An unresolved team returns an empty slice:
// cascade fan-out treats it as "nobody to notify", not an error.
func (s *Service) ActiveMembers(ctx context.Context, episodeID uuid.UUID, role domain.RoleTag) ([]uuid.UUID, error) {
	team, err := s.repo.GetTeamForEpisode(ctx, episodeID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	members, err := s.repo.ListActiveMembers(ctx, team.ID, role)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// MemberEpisodes returns the episodes the user belongs to through team
// resolution, as producer or active member. Fails closed: an error
// surfaces instead of an unrestricted view.
func (s *Service) MemberEpisodes(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListEpisodeIDsForUser(ctx, userID)
}

// GlobalRoleHolders returns the IDs of every user carrying a global role.
// Used as a fan-out fallback when the team has no member with the tag.
func (s *Service) GlobalRoleHolders(ctx context.Context, role string) ([]uuid.UUID, error) {
	users, err := s.repo.ListUsersByGlobalRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// CreateTeam creates a production team for a program (manager only).
func (s *Service) CreateTeam(ctx context.Context, actorID uuid.UUID, req transport.CreateTeamRequest) (transport.TeamResponse, error) {
	if err := s.RequireManagerProgram(ctx, actorID); err != nil {
		return transport.TeamResponse{}, err
	}

	team, err := s.repo.CreateTeam(ctx, repository.CreateTeamParams{
		ProgramID:  req.ProgramID,
		ProducerID: req.ProducerID,
		Name:       req.Name,
	})
	if err != nil {
		return transport.TeamResponse{}, err
	}

	s.log.Info("production team created", "id", team.ID, "program", team.ProgramID, "producer", team.ProducerID)
	return toTeamResponse(team), nil
}

// AssignTeam binds a team to an episode (manager only).
func (s *Service) AssignTeam(ctx context.Context, actorID uuid.UUID, episodeID, teamID uuid.UUID) error {
	if err := s.RequireManagerProgram(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.repo.GetTeamByID(ctx, teamID); err != nil {
		return err
	}
	return s.repo.AssignTeamToEpisode(ctx, episodeID, teamID)
}

// ReplaceMembers swaps a team's roster (manager or owning producer).
func (s *Service) ReplaceMembers(ctx context.Context, actorID uuid.UUID, teamID uuid.UUID, req transport.ReplaceMembersRequest) ([]transport.MemberResponse, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.ProducerID != actorID {
		if err := s.RequireManagerProgram(ctx, actorID); err != nil {
			return nil, err
		}
	}

	upserts := make([]repository.MemberUpsert, 0, len(req.Members))
	for _, m := range req.Members {
		tag, err := domain.ParseRoleTag(m.Role)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		upserts = append(upserts, repository.MemberUpsert{
			UserID:   m.UserID,
			Role:     tag,
			IsActive: m.IsActive,
		})
	}

	members, err := s.repo.ReplaceMembers(ctx, teamID, upserts)
	if err != nil {
		return nil, err
	}

	out := make([]transport.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return out, nil
}

func toTeamResponse(t repository.Team) transport.TeamResponse {
	return transport.TeamResponse{
		ID:         t.ID,
		ProgramID:  t.ProgramID,
		ProducerID: t.ProducerID,
		Name:       t.Name,
		CreatedAt:  t.CreatedAt,
	}
}

func toMemberResponse(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{
		ID:       m.ID,
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Role:     string(m.Role),
		RoleName: domain.DisplayName(m.Role),
		IsActive: m.IsActive,
	}
}
