// Package scheduler enqueues and processes deferred pipeline work:
// deadline reminders delivered ahead of each due date.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDeadlineReminder = "deadline.reminder"

// DeadlineReminderPayload identifies the deadline a reminder fires for.
type DeadlineReminderPayload struct {
	DeadlineID string `json:"deadlineId"`
	EpisodeID  string `json:"episodeId"`
	Role       string `json:"role"`
}

func NewDeadlineReminderTask(payload DeadlineReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeadlineReminder, data), nil
}

func ParseDeadlineReminderPayload(task *asynq.Task) (DeadlineReminderPayload, error) {
	var payload DeadlineReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DeadlineReminderPayload{}, err
	}
	return payload, nil
}
