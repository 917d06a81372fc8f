package repository

import (
	"context"
	"time"

	"greenviz_backend/internal/projects/domain"

	"github.com/google/uuid"
)

// ProjectRepository persists project aggregates.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListByLeadEmail(ctx context.Context, email string) ([]*domain.Project, error)
	// ListStale returns projects stuck in an in-flight status (analyzing or
	// generating) whose last update is older than the cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Project, error)
}

// LeadRepository persists captured leads. The concrete *Repository also
// implements ProjectRepository; the lead methods carry a Lead suffix so the
// two interfaces can share one implementation.
type LeadRepository interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
	UpdateLead(ctx context.Context, lead *domain.Lead) error
	GetLeadByProjectID(ctx context.Context, projectID uuid.UUID) (*domain.Lead, error)
}
