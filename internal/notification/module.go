// Package notification provides the notification bounded context: the
// fan-out sink every cascade and approval delivers through, the
// per-user feed, and the live SSE stream.
package notification

import (
	"studio_production_backend/internal/email"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/internal/notification/handler"
	"studio_production_backend/internal/notification/repository"
	"studio_production_backend/internal/notification/service"
	"studio_production_backend/internal/notification/sse"
	"studio_production_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	hub     *sse.Hub
}

// NewModule creates and initializes the notification module. The mail
// sender and directory are optional; pass nil to disable email copies.
func NewModule(pool *pgxpool.Pool, mail email.Sender, directory service.Directory, log *logger.Logger) *Module {
	repo := repository.New(pool)
	hub := sse.NewHub(log)
	svc := service.New(repo, hub, mail, directory, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		hub:     hub,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the notification service; the work-item, approval,
// and scheduler modules fan out through it.
func (m *Module) Service() *service.Service {
	return m.service
}

// Close shuts down the SSE hub.
func (m *Module) Close() {
	m.hub.Close()
}

// RegisterRoutes mounts the notification feed and stream routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications", m.handler.List)
	ctx.Protected.GET("/notifications/unread", m.handler.CountUnread)
	ctx.Protected.GET("/notifications/stream", m.hub.Handler())
	ctx.Protected.PATCH("/notifications/:id/read", m.handler.MarkRead)
	ctx.Protected.PATCH("/notifications/read-all", m.handler.MarkAllRead)
	ctx.Protected.DELETE("/notifications/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
