// Package approval provides the approval bounded context: generic
// escalation records decided by a different role than the requestor.
package approval

import (
	"studio_production_backend/internal/approval/handler"
	"studio_production_backend/internal/approval/repository"
	"studio_production_backend/internal/approval/service"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the approval bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the approval module.
func NewModule(pool *pgxpool.Pool, access service.Access, schedules service.ScheduleSink, seasons service.SeasonGenerator, notifier service.Notifier, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pool, access, schedules, seasons, notifier, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "approval"
}

// Service returns the approval service; the work-item cascade files
// budget requests through it.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts approval routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/schedule-options", m.handler.RequestScheduleOption)
	ctx.Protected.GET("/approvals", m.handler.ListPending)
	ctx.Protected.GET("/approvals/:id", m.handler.Get)
	ctx.Protected.POST("/approvals/:id/review", m.handler.Review)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
