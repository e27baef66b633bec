package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
)

const (
	userNotFoundMessage = "user not found"
	teamNotFoundMessage = "no production team assigned"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetUserByID retrieves an account by its ID.
func (r *Repo) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves an account by email.
func (r *Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsersByGlobalRole retrieves every account carrying a global role.
func (r *Repo) ListUsersByGlobalRole(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE role = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetTeamByID retrieves a production team.
func (r *Repo) GetTeamByID(ctx context.Context, id uuid.UUID) (Team, error) {
	query := `
		SELECT id, program_id, producer_id, name, created_at
		FROM production_teams
		WHERE id = $1`

	var t Team
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ProgramID, &t.ProducerID, &t.Name, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, apperr.NotFound("production team not found")
		}
		return Team{}, fmt.Errorf("get team by id: %w", err)
	}
	return t, nil
}

// GetTeamForEpisode resolves the authorization scope for an episode: the
// episode-level assignment wins, the parent program's team is the
// fallback. This query is the only place the fallback chain exists.
func (r *Repo) GetTeamForEpisode(ctx context.Context, episodeID uuid.UUID) (Team, error) {
	query := `
		SELECT t.id, t.program_id, t.producer_id, t.name, t.created_at
		FROM episodes e
		LEFT JOIN episode_team_assignments a ON a.episode_id = e.id
		JOIN production_teams t
			ON t.id = COALESCE(a.team_id, (
				SELECT pt.id FROM production_teams pt
				WHERE pt.program_id = e.program_id
				ORDER BY pt.created_at ASC
				LIMIT 1
			))
		WHERE e.id = $1`

	var t Team
	err := r.pool.QueryRow(ctx, query, episodeID).Scan(
		&t.ID, &t.ProgramID, &t.ProducerID, &t.Name, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, apperr.NotFound(teamNotFoundMessage)
		}
		return Team{}, fmt.Errorf("resolve team for episode: %w", err)
	}
	return t, nil
}

// ListActiveMembers retrieves the active roster entries holding a role.
func (r *Repo) ListActiveMembers(ctx context.Context, teamID uuid.UUID, role domain.RoleTag) ([]Member, error) {
	query := `
		SELECT id, team_id, user_id, role, is_active, created_at
		FROM team_members
		WHERE team_id = $1 AND role = $2 AND is_active = true
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, teamID, string(role))
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// IsActiveMember reports whether the user holds an active role entry.
func (r *Repo) IsActiveMember(ctx context.Context, teamID, userID uuid.UUID, role domain.RoleTag) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND user_id = $2 AND role = $3 AND is_active = true
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, userID, string(role)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

// ListEpisodeIDsForUser returns the episodes the user may act on
// through team membership, using the same episode-else-program team
// resolution as GetTeamForEpisode.
func (r *Repo) ListEpisodeIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT e.id
		FROM episodes e
		LEFT JOIN episode_team_assignments a ON a.episode_id = e.id
		JOIN production_teams t
			ON t.id = COALESCE(a.team_id, (
				SELECT pt.id FROM production_teams pt
				WHERE pt.program_id = e.program_id
				ORDER BY pt.created_at ASC
				LIMIT 1
			))
		WHERE t.producer_id = $1
			OR EXISTS (
				SELECT 1 FROM team_members m
				WHERE m.team_id = t.id AND m.user_id = $1 AND m.is_active = true
			)`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list episodes for user: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan episode id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateTeam inserts a production team.
func (r *Repo) CreateTeam(ctx context.Context, params CreateTeamParams) (Team, error) {
	query := `
		INSERT INTO production_teams (id, program_id, producer_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, program_id, producer_id, name, created_at`

	var t Team
	err := r.pool.QueryRow(ctx, query, uuid.New(), params.ProgramID, params.ProducerID, params.Name).Scan(
		&t.ID, &t.ProgramID, &t.ProducerID, &t.Name, &t.CreatedAt,
	)
	if err != nil {
		return Team{}, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

// AssignTeamToEpisode sets or replaces the episode-level team assignment.
func (r *Repo) AssignTeamToEpisode(ctx context.Context, episodeID, teamID uuid.UUID) error {
	query := `
		INSERT INTO episode_team_assignments (episode_id, team_id)
		VALUES ($1, $2)
		ON CONFLICT (episode_id) DO UPDATE SET team_id = EXCLUDED.team_id`

	if _, err := r.pool.Exec(ctx, query, episodeID, teamID); err != nil {
		return fmt.Errorf("assign team to episode: %w", err)
	}
	return nil
}

// ReplaceMembers swaps the entire roster in one transaction.
func (r *Repo) ReplaceMembers(ctx context.Context, teamID uuid.UUID, members []MemberUpsert) ([]Member, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin replace members: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return nil, fmt.Errorf("clear roster: %w", err)
	}

	out := make([]Member, 0, len(members))
	for _, m := range members {
		var row Member
		err := tx.QueryRow(ctx, `
			INSERT INTO team_members (id, team_id, user_id, role, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, team_id, user_id, role, is_active, created_at`,
			uuid.New(), teamID, m.UserID, string(m.Role), m.IsActive,
		).Scan(&row.ID, &row.TeamID, &row.UserID, &row.Role, &row.IsActive, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert roster entry: %w", err)
		}
		out = append(out, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit replace members: %w", err)
	}
	return out, nil
}

func scanMembers(rows pgx.Rows) ([]Member, error) {
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
