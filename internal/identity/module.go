// Package identity provides the identity and membership bounded context:
// production teams, rosters, and the single team-resolution authority
// every other module authorizes through.
package identity

import (
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/internal/identity/handler"
	"studio_production_backend/internal/identity/repository"
	"studio_production_backend/internal/identity/service"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the identity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the identity module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "identity"
}

// Service returns the resolver service for other modules to authorize through.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts team routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/episodes/:id/team", m.handler.ResolveTeam)
	ctx.Protected.PUT("/teams/:id/members", m.handler.ReplaceMembers)

	ctx.Admin.POST("/teams", m.handler.CreateTeam)
	ctx.Admin.PUT("/episodes/:id/team", m.handler.AssignTeam)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
