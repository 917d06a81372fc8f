// Package ports defines the external collaborator interfaces the projects
// orchestrator depends on. Concrete implementations live in internal/ai and
// internal/adapters/storage.
package ports

import (
	"context"

	"greenviz_backend/internal/projects/domain"
)

// GeneratedImage is a rendered image returned by a provider.
type GeneratedImage struct {
	Data        []byte
	ContentType string
}

// Provider is the vision/generation capability. Two implementations exist
// (native Gemini and OpenRouter); the orchestrator never knows which one it
// holds. Failures are opaque: the orchestrator surfaces them without
// diagnosing.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string
	// AnalyzeImage inspects the stored original image and returns the
	// structured vegetation-suitability analysis.
	AnalyzeImage(ctx context.Context, imageURL string, userDescription string) (domain.Analysis, error)
	// GenerateImage renders the vegetalized "after" image from the original
	// and its analysis.
	GenerateImage(ctx context.Context, imageURL string, analysis domain.Analysis, userDescription string) (GeneratedImage, error)
}

// ImageStore persists a binary blob and returns a retrievable URL.
type ImageStore interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}
