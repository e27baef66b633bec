// Package files exposes presigned upload and download URLs for
// deliverable files stored in object storage.
package files

import (
	"studio_production_backend/internal/adapters/storage"
	"studio_production_backend/internal/files/handler"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/platform/validator"
)

// Module is the file-storage module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the files module on top of the storage adapter.
func NewModule(store storage.Service, val *validator.Validator) *Module {
	return &Module{handler: handler.New(store, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "files"
}

// RegisterRoutes mounts the presigned URL routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/files/upload-url", m.handler.UploadURL)
	ctx.Protected.GET("/files/download-url", m.handler.DownloadURL)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
