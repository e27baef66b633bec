// Package workitem provides the work-item bounded context: the typed
// pipeline deliverables, their transition validator, and the cascade
// engine that drives downstream creation, stage moves, and fan-out.
package workitem

import (
	"studio_production_backend/internal/http"
	"studio_production_backend/internal/workitem/handler"
	"studio_production_backend/internal/workitem/repository"
	"studio_production_backend/internal/workitem/service"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the work-item bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the work-item module. Its
// collaborators come from the identity, episode, approval, and
// notification modules.
func NewModule(pool *pgxpool.Pool, teams service.TeamResolver, stages service.EpisodeStages, budgets service.BudgetRequester, notifier service.Notifier, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, teams, stages, budgets, notifier, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workitem"
}

// Service returns the work-item service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts work-item routes.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	ctx.Protected.POST("/music-arrangements", m.handler.CreateArrangement)
	ctx.Protected.GET("/music-arrangements/:id", m.handler.GetArrangement)
	ctx.Protected.POST("/creative-works", m.handler.CreateCreative)
	ctx.Protected.GET("/creative-works/:id", m.handler.GetCreative)
	ctx.Protected.PUT("/creative-works/:id", m.handler.UpdateCreative)
	ctx.Protected.POST("/editor-works", m.handler.CreateEditorWork)
	ctx.Protected.POST("/work-items/:type/:id/transition", m.handler.Transition)
	ctx.Protected.GET("/pending-work", m.handler.ListPending)
	ctx.Protected.GET("/episodes/:id/work-items", m.handler.ListByEpisode)
}

// Compile-time check that Module implements http.Module.
var _ http.Module = (*Module)(nil)
