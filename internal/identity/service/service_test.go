package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"studio_production_backend/internal/identity/domain"
	"studio_production_backend/internal/identity/repository"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/logger"
)

type fakeRepo struct {
	users    map[uuid.UUID]repository.User
	teams    map[uuid.UUID]repository.Team // keyed by episode ID
	members  map[uuid.UUID][]repository.Member
	memberOK map[string]bool // teamID|userID|role
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[uuid.UUID]repository.User{},
		teams:    map[uuid.UUID]repository.Team{},
		members:  map[uuid.UUID][]repository.Member{},
		memberOK: map[string]bool{},
	}
}

func memberKey(teamID, userID uuid.UUID, role domain.RoleTag) string {
	return teamID.String() + "|" + userID.String() + "|" + string(role)
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) ListUsersByGlobalRole(_ context.Context, role string) ([]repository.User, error) {
	var out []repository.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTeamByID(_ context.Context, id uuid.UUID) (repository.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return repository.Team{}, apperr.NotFound("team not found")
}

func (f *fakeRepo) GetTeamForEpisode(_ context.Context, episodeID uuid.UUID) (repository.Team, error) {
	t, ok := f.teams[episodeID]
	if !ok {
		return repository.Team{}, apperr.NotFound("no team for episode")
	}
	return t, nil
}

func (f *fakeRepo) ListActiveMembers(_ context.Context, teamID uuid.UUID, role domain.RoleTag) ([]repository.Member, error) {
	var out []repository.Member
	for _, m := range f.members[teamID] {
		if m.Role == role && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) IsActiveMember(_ context.Context, teamID, userID uuid.UUID, role domain.RoleTag) (bool, error) {
	return f.memberOK[memberKey(teamID, userID, role)], nil
}

func (f *fakeRepo) ListEpisodeIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for episodeID, t := range f.teams {
		if t.ProducerID == userID {
			out = append(out, episodeID)
			continue
		}
		for _, m := range f.members[t.ID] {
			if m.UserID == userID && m.IsActive {
				out = append(out, episodeID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateTeam(_ context.Context, params repository.CreateTeamParams) (repository.Team, error) {
	t := repository.Team{ID: uuid.New(), ProgramID: params.ProgramID, ProducerID: params.ProducerID, Name: params.Name}
	return t, nil
}

func (f *fakeRepo) AssignTeamToEpisode(_ context.Context, episodeID, teamID uuid.UUID) error {
	return nil
}

func (f *fakeRepo) ReplaceMembers(_ context.Context, teamID uuid.UUID, members []repository.MemberUpsert) ([]repository.Member, error) {
	out := make([]repository.Member, 0, len(members))
	for _, m := range members {
		out = append(out, repository.Member{ID: uuid.New(), TeamID: teamID, UserID: m.UserID, Role: m.Role, IsActive: m.IsActive})
	}
	f.members[teamID] = out
	return out, nil
}

func newTestService(repo repository.Repository) *Service {
	return New(repo, logger.New("test"))
}

func TestAuthorizeFailsClosedWithoutTeam(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.Authorize(context.Background(), uuid.New(), uuid.New(), domain.RoleSoundEngineer)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for unresolved team, got %v", err)
	}
}

func TestAuthorizeActiveMemberPasses(t *testing.T) {
	repo := newFakeRepo()
	episodeID, teamID, userID := uuid.New(), uuid.New(), uuid.New()
	repo.teams[episodeID] = repository.Team{ID: teamID, ProducerID: uuid.New()}
	repo.memberOK[memberKey(teamID, userID, domain.RoleSoundEngineer)] = true
	svc := newTestService(repo)

	if err := svc.Authorize(context.Background(), userID, episodeID, domain.RoleSoundEngineer); err != nil {
		t.Fatalf("active member should pass: %v", err)
	}
	// same user, different role tag
	if err := svc.Authorize(context.Background(), userID, episodeID, domain.RoleEditor); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("wrong role should be forbidden, got %v", err)
	}
}

func TestAuthorizeProducerPassesAnyRole(t *testing.T) {
	repo := newFakeRepo()
	episodeID, producerID := uuid.New(), uuid.New()
	repo.teams[episodeID] = repository.Team{ID: uuid.New(), ProducerID: producerID}
	svc := newTestService(repo)

	for _, role := range domain.PipelineRoles() {
		if err := svc.Authorize(context.Background(), producerID, episodeID, role); err != nil {
			t.Fatalf("producer should pass %s check: %v", role, err)
		}
	}
}

func TestAuthorizeOwnership(t *testing.T) {
	repo := newFakeRepo()
	episodeID, producerID := uuid.New(), uuid.New()
	repo.teams[episodeID] = repository.Team{ID: uuid.New(), ProducerID: producerID}
	svc := newTestService(repo)

	if err := svc.AuthorizeOwnership(context.Background(), producerID, episodeID); err != nil {
		t.Fatalf("owning producer should pass: %v", err)
	}
	if err := svc.AuthorizeOwnership(context.Background(), uuid.New(), episodeID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner should be forbidden, got %v", err)
	}
	if err := svc.AuthorizeOwnership(context.Background(), producerID, uuid.New()); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("unresolved team should be forbidden, got %v", err)
	}
}

func TestRequireManagerProgram(t *testing.T) {
	repo := newFakeRepo()
	managerID, crewID := uuid.New(), uuid.New()
	repo.users[managerID] = repository.User{ID: managerID, Role: domain.GlobalManagerProgram}
	repo.users[crewID] = repository.User{ID: crewID, Role: domain.GlobalCrew}
	svc := newTestService(repo)

	if err := svc.RequireManagerProgram(context.Background(), managerID); err != nil {
		t.Fatalf("manager should pass: %v", err)
	}
	if err := svc.RequireManagerProgram(context.Background(), crewID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("crew should be forbidden, got %v", err)
	}
	// unknown users fail closed too
	if err := svc.RequireManagerProgram(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("unknown user should be forbidden, got %v", err)
	}
}

func TestActiveMembersUnresolvedTeamIsEmpty(t *testing.T) {
	svc := newTestService(newFakeRepo())

	ids, err := svc.ActiveMembers(context.Background(), uuid.New(), domain.RoleSoundEngineer)
	if err != nil {
		t.Fatalf("unresolved team must not error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no members, got %v", ids)
	}
}

func TestActiveMembersFiltersInactive(t *testing.T) {
	repo := newFakeRepo()
	episodeID, teamID := uuid.New(), uuid.New()
	active, inactive := uuid.New(), uuid.New()
	repo.teams[episodeID] = repository.Team{ID: teamID, ProducerID: uuid.New()}
	repo.members[teamID] = []repository.Member{
		{TeamID: teamID, UserID: active, Role: domain.RoleSoundEngineer, IsActive: true},
		{TeamID: teamID, UserID: inactive, Role: domain.RoleSoundEngineer, IsActive: false},
		{TeamID: teamID, UserID: uuid.New(), Role: domain.RoleEditor, IsActive: true},
	}
	svc := newTestService(repo)

	ids, err := svc.ActiveMembers(context.Background(), episodeID, domain.RoleSoundEngineer)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != active {
		t.Fatalf("expected only the active sound engineer, got %v", ids)
	}
}

func TestMemberEpisodesCoversOwnedAndJoinedTeams(t *testing.T) {
	repo := newFakeRepo()
	user := uuid.New()

	ownedEpisode, ownedTeam := uuid.New(), uuid.New()
	repo.teams[ownedEpisode] = repository.Team{ID: ownedTeam, ProducerID: user}

	joinedEpisode, joinedTeam := uuid.New(), uuid.New()
	repo.teams[joinedEpisode] = repository.Team{ID: joinedTeam, ProducerID: uuid.New()}
	repo.members[joinedTeam] = []repository.Member{
		{TeamID: joinedTeam, UserID: user, Role: domain.RoleEditor, IsActive: true},
	}

	otherEpisode := uuid.New()
	repo.teams[otherEpisode] = repository.Team{ID: uuid.New(), ProducerID: uuid.New()}

	svc := newTestService(repo)
	ids, err := svc.MemberEpisodes(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	got := map[uuid.UUID]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 2 || !got[ownedEpisode] || !got[joinedEpisode] {
		t.Fatalf("member episodes = %v, want the owned and joined episodes only", ids)
	}
}
