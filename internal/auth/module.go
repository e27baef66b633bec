// Package auth provides the authentication bounded context: credential
// verification and JWT access token issuance against identity accounts.
package auth

import (
	"studio_production_backend/internal/auth/handler"
	"studio_production_backend/internal/auth/service"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/config"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module. Users come from
// the identity module's store.
func NewModule(users service.Users, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(users, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes. Login sits behind the stricter
// auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	authGroup.POST("/login", m.handler.Login)

	ctx.Protected.GET("/auth/me", m.handler.Me)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
