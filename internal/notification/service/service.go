// Package service implements notification fan-out and the per-user
// notification feed.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"studio_production_backend/internal/email"
	"studio_production_backend/internal/notification/repository"
	"studio_production_backend/internal/notification/sse"
	"studio_production_backend/platform/logger"
)

// Directory resolves a user's email address for the optional email
// copy of a notification.
type Directory interface {
	UserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// Service provides notification business logic. It is the delivery
// sink for every cascade and approval in the pipeline: fan-out is
// best-effort and never fails the operation that triggered it.
type Service struct {
	repo      *repository.Repo
	hub       *sse.Hub
	mail      email.Sender
	directory Directory
	log       *logger.Logger
}

func New(repo *repository.Repo, hub *sse.Hub, mail email.Sender, directory Directory, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		hub:       hub,
		mail:      mail,
		directory: directory,
		log:       log,
	}
}

// Notify persists one notification row per target user, pushes each to
// any open SSE connection, and sends an email copy when a sender is
// configured. Targets are not deduplicated; callers own their lists.
// Failures are logged, never propagated.
func (s *Service) Notify(ctx context.Context, userIDs []uuid.UUID, ntype, title, message string, data map[string]any, episodeID *uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}

	var payload json.RawMessage
	if len(data) > 0 {
		encoded, err := json.Marshal(data)
		if err != nil {
			s.log.Error("notification payload not serializable", "type", ntype, "error", err)
		} else {
			payload = encoded
		}
	}

	params := make([]repository.InsertParams, 0, len(userIDs))
	for _, userID := range userIDs {
		params = append(params, repository.InsertParams{
			UserID:    userID,
			Type:      ntype,
			Title:     title,
			Message:   message,
			Data:      payload,
			EpisodeID: episodeID,
		})
	}

	inserted, err := s.repo.InsertBatch(ctx, params)
	if err != nil {
		s.log.Error("notification fan-out failed", "type", ntype, "targets", len(userIDs), "error", err)
		return
	}

	for _, n := range inserted {
		if s.hub != nil {
			s.hub.Publish(n.UserID, sse.Event{
				Type:    "notification",
				Message: n.Title,
				Data:    toResponse(n),
			})
		}
		s.sendEmailCopy(ctx, n)
	}
}

func (s *Service) sendEmailCopy(ctx context.Context, n repository.Notification) {
	if s.mail == nil || s.directory == nil {
		return
	}

	addr, err := s.directory.UserEmail(ctx, n.UserID)
	if err != nil || addr == "" {
		return
	}
	if err := s.mail.SendNotificationEmail(ctx, addr, n.Title, n.Message); err != nil {
		s.log.Warn("notification email failed", "user_id", n.UserID.String(), "error", err)
	}
}

// NotificationResponse is the feed representation of one notification.
type NotificationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	EpisodeID *uuid.UUID      `json:"episodeId,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt string          `json:"createdAt"`
}

func toResponse(n repository.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		EpisodeID: n.EpisodeID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]NotificationResponse, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.List(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toResponse(n))
	}
	return out, total, nil
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
