package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/internal/episode/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
)

const (
	episodeNotFoundMessage = "episode not found"
	programNotFoundMessage = "program not found"
)

const episodeColumns = `id, program_id, episode_number, title, air_date, current_stage, rundown_file_key, created_by, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new episode repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateProgram inserts a program.
func (r *Repo) CreateProgram(ctx context.Context, name string, managerID uuid.UUID) (Program, error) {
	query := `
		INSERT INTO programs (id, name, manager_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, manager_id, created_at`

	var p Program
	err := r.pool.QueryRow(ctx, query, uuid.New(), name, managerID).Scan(
		&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt,
	)
	if err != nil {
		return Program{}, fmt.Errorf("create program: %w", err)
	}
	return p, nil
}

// GetProgram retrieves a program by ID.
func (r *Repo) GetProgram(ctx context.Context, id uuid.UUID) (Program, error) {
	query := `SELECT id, name, manager_id, created_at FROM programs WHERE id = $1`

	var p Program
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, apperr.NotFound(programNotFoundMessage)
		}
		return Program{}, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

// CreateEpisode inserts an episode at the planning stage.
func (r *Repo) CreateEpisode(ctx context.Context, q db.Querier, params CreateEpisodeParams) (Episode, error) {
	query := `
		INSERT INTO episodes (id, program_id, episode_number, title, air_date, current_stage, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + episodeColumns

	var e Episode
	err := q.QueryRow(ctx, query,
		uuid.New(), params.ProgramID, params.EpisodeNumber, params.Title,
		params.AirDate, string(domain.StagePlanning), params.CreatedBy,
	).Scan(
		&e.ID, &e.ProgramID, &e.EpisodeNumber, &e.Title, &e.AirDate,
		&e.CurrentStage, &e.RundownFileKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Episode{}, fmt.Errorf("create episode: %w", err)
	}
	return e, nil
}

// GetEpisode retrieves an episode by ID.
func (r *Repo) GetEpisode(ctx context.Context, id uuid.UUID) (Episode, error) {
	return r.GetEpisodeIn(ctx, r.pool, id)
}

// GetEpisodeIn retrieves an episode using the caller's querier, so a
// transaction sees its own uncommitted writes.
func (r *Repo) GetEpisodeIn(ctx context.Context, q db.Querier, id uuid.UUID) (Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = $1`

	var e Episode
	err := q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ProgramID, &e.EpisodeNumber, &e.Title, &e.AirDate,
		&e.CurrentStage, &e.RundownFileKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Episode{}, apperr.NotFound(episodeNotFoundMessage)
		}
		return Episode{}, fmt.Errorf("get episode: %w", err)
	}
	return e, nil
}

// ListEpisodesByProgram retrieves a program's episodes in airing order.
func (r *Repo) ListEpisodesByProgram(ctx context.Context, programID uuid.UUID) ([]Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE program_id = $1 ORDER BY air_date ASC`

	rows, err := r.pool.Query(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(
			&e.ID, &e.ProgramID, &e.EpisodeNumber, &e.Title, &e.AirDate,
			&e.CurrentStage, &e.RundownFileKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// CountEpisodesInYear counts a program's episodes airing in a year. Used
// as the idempotency pre-check for bulk generation.
func (r *Repo) CountEpisodesInYear(ctx context.Context, q db.Querier, programID uuid.UUID, year int) (int, error) {
	query := `
		SELECT COUNT(*) FROM episodes
		WHERE program_id = $1 AND EXTRACT(YEAR FROM air_date) = $2`

	var count int
	if err := q.QueryRow(ctx, query, programID, year).Scan(&count); err != nil {
		return 0, fmt.Errorf("count episodes in year: %w", err)
	}
	return count, nil
}

// SetRundown stores the rundown file key on the episode.
func (r *Repo) SetRundown(ctx context.Context, id uuid.UUID, fileKey string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE episodes SET rundown_file_key = $2, updated_at = now() WHERE id = $1`,
		id, fileKey,
	)
	if err != nil {
		return fmt.Errorf("set rundown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(episodeNotFoundMessage)
	}
	return nil
}

// UpdateStageGuarded moves the stage only if the episode still sits at
// the expected stage. Returning false means a concurrent transition won.
func (r *Repo) UpdateStageGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to domain.Stage) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE episodes SET current_stage = $3, updated_at = now()
		 WHERE id = $1 AND current_stage = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("update stage: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertStageLog appends a stage-transition audit entry.
func (r *Repo) InsertStageLog(ctx context.Context, q db.Querier, params StageLogParams) error {
	_, err := q.Exec(ctx, `
		INSERT INTO episode_stage_logs (id, episode_id, from_stage, to_stage, owner_role, assigned_to, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), params.EpisodeID, string(params.FromStage), string(params.ToStage),
		params.OwnerRole, params.AssignedTo, params.Reason, params.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert stage log: %w", err)
	}
	return nil
}

// ListStageLogs retrieves an episode's stage history, oldest first.
func (r *Repo) ListStageLogs(ctx context.Context, episodeID uuid.UUID) ([]StageLog, error) {
	query := `
		SELECT id, episode_id, from_stage, to_stage, owner_role, assigned_to, reason, created_by, created_at
		FROM episode_stage_logs
		WHERE episode_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list stage logs: %w", err)
	}
	defer rows.Close()

	var logs []StageLog
	for rows.Next() {
		var l StageLog
		if err := rows.Scan(
			&l.ID, &l.EpisodeID, &l.FromStage, &l.ToStage, &l.OwnerRole,
			&l.AssignedTo, &l.Reason, &l.CreatedBy, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stage log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// factQueries maps readiness facts to their existence checks. Fixed SQL
// per fact; never built from caller input.
var factQueries = map[WorkItemFact]string{
	FactArrangementApproved:  `SELECT EXISTS (SELECT 1 FROM music_arrangements WHERE episode_id = $1 AND status = 'arrangement_approved')`,
	FactCreativeWorkApproved: `SELECT EXISTS (SELECT 1 FROM creative_works WHERE episode_id = $1 AND status = 'approved')`,
	FactSoundEditingApproved: `SELECT EXISTS (SELECT 1 FROM sound_editings WHERE episode_id = $1 AND status = 'approved')`,
	FactEditorWorkApproved:   `SELECT EXISTS (SELECT 1 FROM editor_works WHERE episode_id = $1 AND status = 'approved')`,
	FactQCApproved:           `SELECT EXISTS (SELECT 1 FROM quality_controls WHERE episode_id = $1 AND status = 'approved')`,
}

// HasWorkItemFact evaluates one readiness existence check.
func (r *Repo) HasWorkItemFact(ctx context.Context, episodeID uuid.UUID, fact WorkItemFact) (bool, error) {
	query, ok := factQueries[fact]
	if !ok {
		return false, fmt.Errorf("unknown readiness fact %q", fact)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, episodeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("readiness fact %s: %w", fact, err)
	}
	return exists, nil
}

// DeadlinesAllCompleted reports whether no open deadline remains.
func (r *Repo) DeadlinesAllCompleted(ctx context.Context, episodeID uuid.UUID) (bool, error) {
	query := `
		SELECT NOT EXISTS (
			SELECT 1 FROM deadlines WHERE episode_id = $1 AND is_completed = false
		)`

	var done bool
	if err := r.pool.QueryRow(ctx, query, episodeID).Scan(&done); err != nil {
		return false, fmt.Errorf("check deadlines completed: %w", err)
	}
	return done, nil
}
