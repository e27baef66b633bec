package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for production
// deliverables: audio masters, video cuts, scripts, and artwork.
var AllowedContentTypes = map[string]bool{
	// Audio
	"audio/mpeg":   true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/aiff":   true,
	"audio/flac":   true,
	"audio/ogg":    true,
	"audio/midi":   true,

	// Video
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
	"video/mxf":       true,
	"video/mpeg":      true,

	// Documents
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/plain": true,
	"text/csv":   true,

	// Artwork
	"image/jpeg":    true,
	"image/png":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}

// IsAudioContentType checks if the content type is audio.
func IsAudioContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "audio/")
}

// IsVideoContentType checks if the content type is a video.
func IsVideoContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "video/")
}
