// Package transport defines the request and response DTOs for the projects
// HTTP API. Field names follow the JSON contract consumed by the landing
// page widget.
package transport

import (
	"time"

	"greenviz_backend/internal/projects/domain"

	"github.com/google/uuid"
)

// Request DTOs

// GenerateRequest starts the analysis and generation sequence. Location is a
// free-form city or region string used for regional pricing.
type GenerateRequest struct {
	Location string `json:"location" validate:"omitempty,max=120"`
}

// UnlockRequest exchanges an email for full access to a generated project.
type UnlockRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

// TrackRequest records a lead engagement action.
type TrackRequest struct {
	Action string `json:"action" validate:"required,oneof=calendly pdf_download"`
}

// Response DTOs

// CreateProjectResponse is returned after a successful upload.
type CreateProjectResponse struct {
	ID               uuid.UUID `json:"id"`
	Status           string    `json:"status"`
	OriginalImageURL string    `json:"originalImageUrl"`
}

// ProjectResponse is the project view. For a project that has not been
// unlocked yet, AnalysisData is withheld while the estimation and generated
// image remain visible.
type ProjectResponse struct {
	ID                uuid.UUID          `json:"id"`
	Status            string             `json:"status"`
	OriginalImageURL  string             `json:"originalImageUrl,omitempty"`
	GeneratedImageURL *string            `json:"generatedImageUrl"`
	AnalysisData      *domain.Analysis   `json:"analysisData"`
	Estimation        *domain.Estimation `json:"estimation"`
	UserDescription   *string            `json:"userDescription,omitempty"`
	LeadEmail         *string            `json:"leadEmail,omitempty"`
	ErrorMessage      *string            `json:"errorMessage,omitempty"`
	IsUnlocked        bool               `json:"isUnlocked"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// UnlockResponse wraps the fully revealed project after email capture.
type UnlockResponse struct {
	Success bool            `json:"success"`
	Project ProjectResponse `json:"project"`
}

// TrackResponse acknowledges a tracking call. Tracking never fails the
// caller, so Success is always true.
type TrackResponse struct {
	Success bool `json:"success"`
}

// ProjectListResponse wraps a project collection.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// FullProjectResponse maps a project with every field revealed.
func FullProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID,
		Status:            string(p.Status),
		OriginalImageURL:  p.OriginalImageURL,
		GeneratedImageURL: p.GeneratedImageURL,
		AnalysisData:      p.Analysis,
		Estimation:        p.Estimation,
		UserDescription:   p.UserDescription,
		LeadEmail:         p.LeadEmail,
		ErrorMessage:      p.ErrorMessage,
		IsUnlocked:        p.IsUnlocked(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// LockedProjectResponse maps a project for a visitor who has not unlocked it.
// The estimation and generated image stay visible; the analysis is withheld.
func LockedProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID,
		Status:            string(p.Status),
		GeneratedImageURL: p.GeneratedImageURL,
		Estimation:        p.Estimation,
		ErrorMessage:      p.ErrorMessage,
		IsUnlocked:        false,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ViewProjectResponse picks the full or withheld view based on unlock state.
func ViewProjectResponse(p *domain.Project) ProjectResponse {
	if p.IsUnlocked() {
		return FullProjectResponse(p)
	}
	return LockedProjectResponse(p)
}
