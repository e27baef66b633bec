package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studio_production_backend/internal/adapters/storage"
	"studio_production_backend/internal/files/transport"
	"studio_production_backend/platform/httpkit"
	"studio_production_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler issues presigned URLs for deliverable uploads and downloads.
type Handler struct {
	store storage.Service
	val   *validator.Validator
}

// New creates a new files handler.
func New(store storage.Service, val *validator.Validator) *Handler {
	return &Handler{store: store, val: val}
}

func bucketFor(kind string) string {
	if kind == transport.KindRundown {
		return storage.BucketRundowns
	}
	return storage.BucketWorkItemFiles
}

// UploadURL returns a presigned PUT URL for a new deliverable file.
// POST /api/v1/files/upload-url
func (h *Handler) UploadURL(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	presigned, err := h.store.GenerateUploadURL(c.Request.Context(),
		bucketFor(req.Kind), req.EpisodeID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	httpkit.OK(c, presigned)
}

// DownloadURL returns a presigned GET URL for an existing file key.
// GET /api/v1/files/download-url
func (h *Handler) DownloadURL(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	fileKey := c.Query("key")
	if fileKey == "" {
		httpkit.Error(c, http.StatusBadRequest, "key is required", nil)
		return
	}
	kind := c.DefaultQuery("kind", transport.KindWorkItem)

	presigned, err := h.store.GenerateDownloadURL(c.Request.Context(), bucketFor(kind), fileKey)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	httpkit.OK(c, presigned)
}
