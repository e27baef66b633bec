// Package transport defines the file-storage API contracts.
package transport

import "github.com/google/uuid"

// File kinds mapped to storage buckets.
const (
	KindWorkItem = "work_item"
	KindRundown  = "rundown"
)

// UploadURLRequest asks for a presigned PUT URL for a deliverable.
type UploadURLRequest struct {
	Kind        string    `json:"kind" validate:"required,oneof=work_item rundown"`
	EpisodeID   uuid.UUID `json:"episodeId" validate:"required"`
	FileName    string    `json:"fileName" validate:"required,max=255"`
	ContentType string    `json:"contentType" validate:"required"`
	SizeBytes   int64     `json:"sizeBytes" validate:"required,gt=0"`
}
