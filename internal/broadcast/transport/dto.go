// Package transport defines response DTOs for the broadcast module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleResponse is the API shape of a broadcasting schedule.
type ScheduleResponse struct {
	ID        uuid.UUID  `json:"id"`
	EpisodeID uuid.UUID  `json:"episodeId"`
	SlotDate  *time.Time `json:"slotDate,omitempty"`
	SlotTime  *string    `json:"slotTime,omitempty"`
	Channel   *string    `json:"channel,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// WorkResponse is the API shape of the airing task.
type WorkResponse struct {
	ID         uuid.UUID  `json:"id"`
	EpisodeID  uuid.UUID  `json:"episodeId"`
	ScheduleID uuid.UUID  `json:"scheduleId"`
	Status     string     `json:"status"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// EpisodeBroadcastResponse bundles the schedule with its airing task.
type EpisodeBroadcastResponse struct {
	Schedule ScheduleResponse `json:"schedule"`
	Work     *WorkResponse    `json:"work,omitempty"`
}
