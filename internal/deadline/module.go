// Package deadline provides the deadline bounded context: per-role due
// dates generated from an episode's air date, with an audited edit trail.
package deadline

import (
	"studio_production_backend/internal/deadline/handler"
	"studio_production_backend/internal/deadline/repository"
	"studio_production_backend/internal/deadline/service"
	"studio_production_backend/internal/events"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the deadline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the deadline module.
func NewModule(pool *pgxpool.Pool, access service.Access, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pool, access, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deadline"
}

// Service returns the deadline service; the episode module generates
// deadlines through it during episode creation.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts deadline routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/episodes/:id/deadlines", m.handler.ListByEpisode)
	ctx.Protected.GET("/deadlines/:id/revisions", m.handler.Revisions)
	ctx.Protected.POST("/deadlines/:id/complete", m.handler.Complete)

	ctx.Admin.PUT("/deadlines/:id", m.handler.Edit)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
