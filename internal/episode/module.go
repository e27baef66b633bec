// Package episode provides the episode bounded context: programs,
// episodes, the production stage tracker, and the readiness evaluation.
package episode

import (
	"studio_production_backend/internal/episode/handler"
	"studio_production_backend/internal/episode/repository"
	"studio_production_backend/internal/episode/service"
	"studio_production_backend/internal/events"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the episode bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the episode module. The access and
// deadline collaborators come from the identity and deadline modules.
func NewModule(pool *pgxpool.Pool, access service.Access, deadlines service.DeadlineGenerator, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pool, access, deadlines, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "episode"
}

// Service returns the episode service for other modules (cascade stage
// moves, readiness gating).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts program and episode routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/programs/:id/episodes", m.handler.ListByProgram)
	ctx.Protected.GET("/episodes/:id", m.handler.Get)
	ctx.Protected.GET("/episodes/:id/stages", m.handler.StageLogs)
	ctx.Protected.POST("/episodes/:id/stages", m.handler.AdvanceStage)
	ctx.Protected.PUT("/episodes/:id/rundown", m.handler.SetRundown)
	ctx.Protected.GET("/episodes/:id/readiness", m.handler.CheckReadiness)

	ctx.Admin.POST("/programs", m.handler.CreateProgram)
	ctx.Admin.POST("/episodes", m.handler.CreateEpisode)
	ctx.Admin.POST("/programs/:id/episodes/generate", m.handler.GenerateYear)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
