// Package broadcast provides the broadcasting bounded context: the
// schedule produced by approved schedule options and the airing gate.
package broadcast

import (
	"studio_production_backend/internal/broadcast/handler"
	"studio_production_backend/internal/broadcast/repository"
	"studio_production_backend/internal/broadcast/service"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the broadcast bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the broadcast module.
func NewModule(pool *pgxpool.Pool, access service.Access, readiness service.Readiness, stages service.Stages, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pool, access, readiness, stages, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "broadcast"
}

// Service returns the broadcast service; the approval module creates
// schedules through it.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts broadcasting routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/episodes/:id/broadcast", m.handler.GetByEpisode)
	ctx.Protected.POST("/broadcast-schedules/:id/confirm", m.handler.Confirm)
	ctx.Protected.POST("/broadcast-works/:id/prepare", m.handler.Prepare)
	ctx.Protected.POST("/broadcast-works/:id/air", m.handler.Air)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
