// Package email delivers transactional mail for the production
// pipeline: in-app notification copies and deadline reminders.
package email

import (
	"context"
	"time"
)

// Sender delivers production notifications by email.
type Sender interface {
	SendNotificationEmail(ctx context.Context, toEmail, title, message string) error
	SendDeadlineReminderEmail(ctx context.Context, toEmail, deadlineTitle, episodeTitle string, dueDate time.Time) error
}

// NoopSender is used when no SMTP configuration is present.
type NoopSender struct{}

func (NoopSender) SendNotificationEmail(ctx context.Context, toEmail, title, message string) error {
	return nil
}

func (NoopSender) SendDeadlineReminderEmail(ctx context.Context, toEmail, deadlineTitle, episodeTitle string, dueDate time.Time) error {
	return nil
}

var _ Sender = NoopSender{}
