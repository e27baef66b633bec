// Package repository implements broadcasting persistence on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/db"
)

// Schedule statuses.
const (
	ScheduleDraft     = "draft"
	ScheduleConfirmed = "confirmed"
	ScheduleAired     = "aired"
)

// Broadcast work statuses.
const (
	WorkPending   = "pending"
	WorkPreparing = "preparing"
	WorkAired     = "aired"
)

// Schedule is an episode's broadcast slot.
type Schedule struct {
	ID        uuid.UUID
	EpisodeID uuid.UUID
	SlotDate  *time.Time
	SlotTime  *string
	Channel   *string
	Status    string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Work is the airing task owned by the broadcasting role.
type Work struct {
	ID         uuid.UUID
	EpisodeID  uuid.UUID
	ScheduleID uuid.UUID
	Status     string
	AssignedTo *uuid.UUID
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository combines all broadcasting repository operations.
type Repository interface {
	MergeSlotIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string) (bool, error)
	CreateScheduleIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string, createdBy uuid.UUID) (Schedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (Schedule, error)
	GetScheduleByEpisode(ctx context.Context, episodeID uuid.UUID) (Schedule, error)

	// UpdateScheduleStatusGuarded and UpdateWorkStatusGuarded persist a
	// status move only when the row is still at the expected status;
	// false means the guard lost a race.
	UpdateScheduleStatusGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to string) (bool, error)

	CreateWorkIn(ctx context.Context, q db.Querier, episodeID, scheduleID, createdBy uuid.UUID) (Work, error)
	GetWork(ctx context.Context, id uuid.UUID) (Work, error)
	GetWorkByEpisode(ctx context.Context, episodeID uuid.UUID) (Work, error)
	UpdateWorkStatusGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to string, assignedTo *uuid.UUID) (bool, error)
}

// Repo provides broadcasting persistence.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// New creates a PostgreSQL-backed broadcast repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const scheduleColumns = `id, episode_id, slot_date, slot_time, channel, status, created_by, created_at, updated_at`

func scanSchedule(row pgx.Row) (Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.EpisodeID, &s.SlotDate, &s.SlotTime, &s.Channel, &s.Status,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Schedule{}, apperr.NotFound("broadcasting schedule not found")
		}
		return Schedule{}, fmt.Errorf("scan broadcasting schedule: %w", err)
	}
	return s, nil
}

// MergeSlotIn updates the open (non-aired) schedule for the episode.
// Reports false when no open schedule exists yet.
func (r *Repo) MergeSlotIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string) (bool, error) {
	query := `
		UPDATE broadcasting_schedules
		SET slot_date = COALESCE($2, slot_date),
		    slot_time = COALESCE($3, slot_time),
		    channel = COALESCE($4, channel),
		    updated_at = NOW()
		WHERE episode_id = $1 AND status <> $5`

	tag, err := q.Exec(ctx, query, episodeID, slotDate, slotTime, channel, ScheduleAired)
	if err != nil {
		return false, fmt.Errorf("merge broadcast slot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateScheduleIn inserts a draft schedule inside the caller's transaction.
func (r *Repo) CreateScheduleIn(ctx context.Context, q db.Querier, episodeID uuid.UUID, slotDate *time.Time, slotTime, channel *string, createdBy uuid.UUID) (Schedule, error) {
	query := `
		INSERT INTO broadcasting_schedules (episode_id, slot_date, slot_time, channel, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + scheduleColumns

	return scanSchedule(q.QueryRow(ctx, query, episodeID, slotDate, slotTime, channel, ScheduleDraft, createdBy))
}

// GetSchedule returns one schedule by id.
func (r *Repo) GetSchedule(ctx context.Context, id uuid.UUID) (Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM broadcasting_schedules WHERE id = $1`
	return scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// GetScheduleByEpisode returns the episode's open or aired schedule.
func (r *Repo) GetScheduleByEpisode(ctx context.Context, episodeID uuid.UUID) (Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM broadcasting_schedules
		WHERE episode_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return scanSchedule(r.pool.QueryRow(ctx, query, episodeID))
}

// UpdateScheduleStatusGuarded moves the schedule status while it still
// holds the expected one.
func (r *Repo) UpdateScheduleStatusGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to string) (bool, error) {
	query := `UPDATE broadcasting_schedules SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`

	tag, err := q.Exec(ctx, query, id, to, from)
	if err != nil {
		return false, fmt.Errorf("update schedule status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const workColumns = `id, episode_id, schedule_id, status, assigned_to, created_by, created_at, updated_at`

func scanWork(row pgx.Row) (Work, error) {
	var w Work
	err := row.Scan(&w.ID, &w.EpisodeID, &w.ScheduleID, &w.Status, &w.AssignedTo,
		&w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Work{}, apperr.NotFound("broadcast work not found")
		}
		return Work{}, fmt.Errorf("scan broadcast work: %w", err)
	}
	return w, nil
}

// CreateWorkIn inserts the airing task inside the caller's transaction.
func (r *Repo) CreateWorkIn(ctx context.Context, q db.Querier, episodeID, scheduleID, createdBy uuid.UUID) (Work, error) {
	query := `
		INSERT INTO broadcast_works (episode_id, schedule_id, status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + workColumns

	return scanWork(q.QueryRow(ctx, query, episodeID, scheduleID, WorkPending, createdBy))
}

func (r *Repo) GetWork(ctx context.Context, id uuid.UUID) (Work, error) {
	query := `SELECT ` + workColumns + ` FROM broadcast_works WHERE id = $1`
	return scanWork(r.pool.QueryRow(ctx, query, id))
}

// GetWorkByEpisode returns the episode's airing task.
func (r *Repo) GetWorkByEpisode(ctx context.Context, episodeID uuid.UUID) (Work, error) {
	query := `SELECT ` + workColumns + `
		FROM broadcast_works
		WHERE episode_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return scanWork(r.pool.QueryRow(ctx, query, episodeID))
}

// UpdateWorkStatusGuarded moves the work status while it still holds
// the expected one.
func (r *Repo) UpdateWorkStatusGuarded(ctx context.Context, q db.Querier, id uuid.UUID, from, to string, assignedTo *uuid.UUID) (bool, error) {
	query := `
		UPDATE broadcast_works
		SET status = $2, assigned_to = COALESCE($3, assigned_to), updated_at = NOW()
		WHERE id = $1 AND status = $4`

	tag, err := q.Exec(ctx, query, id, to, assignedTo, from)
	if err != nil {
		return false, fmt.Errorf("update broadcast work status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
