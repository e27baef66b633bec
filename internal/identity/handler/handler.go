package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studio_production_backend/internal/identity/service"
	"studio_production_backend/internal/identity/transport"
	"studio_production_backend/platform/httpkit"
	"studio_production_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for teams and rosters.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new identity handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateTeam creates a production team.
// POST /api/v1/admin/teams
func (h *Handler) CreateTeam(c *gin.Context) {
	var req transport.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CreateTeam(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// AssignTeam binds a team to an episode.
// PUT /api/v1/admin/episodes/:id/team
func (h *Handler) AssignTeam(c *gin.Context) {
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.AssignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.AssignTeam(c.Request.Context(), identity.UserID(), episodeID, req.TeamID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"assigned": true})
}

// ReplaceMembers swaps a team's roster.
// PUT /api/v1/teams/:id/members
func (h *Handler) ReplaceMembers(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ReplaceMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ReplaceMembers(c.Request.Context(), identity.UserID(), teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"members": result})
}

// ResolveTeam returns the team resolved for an episode.
// GET /api/v1/episodes/:id/team
func (h *Handler) ResolveTeam(c *gin.Context) {
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}

	team, err := h.svc.ResolveTeam(c.Request.Context(), episodeID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"id":         team.ID,
		"programId":  team.ProgramID,
		"producerId": team.ProducerID,
		"name":       team.Name,
	})
}
