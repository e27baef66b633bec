package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studio_production_backend/internal/broadcast/repository"
	"studio_production_backend/internal/broadcast/service"
	"studio_production_backend/internal/broadcast/transport"
	"studio_production_backend/platform/httpkit"
)

const msgInvalidID = "invalid id"

// Handler handles HTTP requests for broadcasting.
type Handler struct {
	svc *service.Service
}

// New creates a new broadcast handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetByEpisode returns the episode's schedule and airing task.
// GET /api/v1/episodes/:id/broadcast
func (h *Handler) GetByEpisode(c *gin.Context) {
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	schedule, work, err := h.svc.GetByEpisode(c.Request.Context(), episodeID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.EpisodeBroadcastResponse{Schedule: toScheduleResponse(schedule)}
	if work != nil {
		w := toWorkResponse(*work)
		resp.Work = &w
	}
	httpkit.OK(c, resp)
}

// Confirm locks a schedule slot.
// POST /api/v1/broadcast-schedules/:id/confirm
func (h *Handler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Confirm(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": repository.ScheduleConfirmed})
}

// Prepare moves the airing task into preparation.
// POST /api/v1/broadcast-works/:id/prepare
func (h *Handler) Prepare(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Prepare(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": repository.WorkPreparing})
}

// Air marks the episode aired, gated by the readiness report.
// POST /api/v1/broadcast-works/:id/air
func (h *Handler) Air(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Air(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": repository.WorkAired})
}

func toScheduleResponse(s repository.Schedule) transport.ScheduleResponse {
	return transport.ScheduleResponse{
		ID:        s.ID,
		EpisodeID: s.EpisodeID,
		SlotDate:  s.SlotDate,
		SlotTime:  s.SlotTime,
		Channel:   s.Channel,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}

func toWorkResponse(w repository.Work) transport.WorkResponse {
	return transport.WorkResponse{
		ID:         w.ID,
		EpisodeID:  w.EpisodeID,
		ScheduleID: w.ScheduleID,
		Status:     w.Status,
		AssignedTo: w.AssignedTo,
		CreatedAt:  w.CreatedAt,
	}
}
