// Package repository implements notification persistence on PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio_production_backend/platform/apperr"
)

// Notification is one delivered in-app notification row.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	Data      json.RawMessage
	EpisodeID *uuid.UUID
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

// InsertParams describes one notification to persist.
type InsertParams struct {
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	Data      json.RawMessage
	EpisodeID *uuid.UUID
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const notificationColumns = `id, user_id, type, title, message, data, episode_id, is_read, read_at, created_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
		&n.Data, &n.EpisodeID, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("scan notification: %w", err)
	}
	return n, nil
}

// InsertBatch persists one row per target user in a single round trip.
func (r *Repo) InsertBatch(ctx context.Context, params []InsertParams) ([]Notification, error) {
	if len(params) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO notifications (user_id, type, title, message, data, episode_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns

	batch := &pgx.Batch{}
	for _, p := range params {
		batch.Queue(query, p.UserID, p.Type, p.Title, p.Message, p.Data, p.EpisodeID)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := make([]Notification, 0, len(params))
	for range params {
		n, err := scanNotification(results.QueryRow())
		if err != nil {
			return nil, fmt.Errorf("insert notification batch: %w", err)
		}
		inserted = append(inserted, n)
	}
	return inserted, nil
}

// List returns a page of the user's notifications, newest first,
// together with the total count.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, total, nil
}

func (r *Repo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips a single notification. Scoped to the owner so a user
// cannot mark someone else's notification.
func (r *Repo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (r *Repo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}
