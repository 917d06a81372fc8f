// Package service implements the project lifecycle orchestrator. It composes
// the project and lead aggregates with the pricing engine and the three
// external collaborators (vision/generation provider, object storage,
// persistence) to drive a submission from upload to unlock.
package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"greenviz_backend/internal/events"
	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/internal/projects/ports"
	"greenviz_backend/internal/projects/pricing"
	"greenviz_backend/internal/projects/repository"
	"greenviz_backend/platform/apperr"
	"greenviz_backend/platform/logger"

	"github.com/google/uuid"
)

// DefaultLocation is used when the client does not supply one.
const DefaultLocation = "France"

// Service is the project lifecycle orchestrator.
type Service struct {
	projects repository.ProjectRepository
	leads    repository.LeadRepository
	provider ports.Provider
	store    ports.ImageStore
	engine   pricing.Engine
	bus      events.Bus
	log      *logger.Logger
	// stepTimeout bounds each provider call. Zero means no deadline.
	stepTimeout time.Duration
}

// New creates the orchestrator.
func New(
	projects repository.ProjectRepository,
	leads repository.LeadRepository,
	provider ports.Provider,
	store ports.ImageStore,
	engine pricing.Engine,
	bus events.Bus,
	log *logger.Logger,
	stepTimeout time.Duration,
) *Service {
	return &Service{
		projects:    projects,
		leads:       leads,
		provider:    provider,
		store:       store,
		engine:      engine,
		bus:         bus,
		log:         log,
		stepTimeout: stepTimeout,
	}
}

// CreateProjectInput carries everything needed to open a submission. Format
// and size checks happen at the boundary, not here.
type CreateProjectInput struct {
	Image           []byte
	Filename        string
	ContentType     string
	UserDescription *string
	Metadata        domain.Metadata
}

// CreateProject stores the raw image and creates a project in the uploaded
// state.
func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	url, err := s.store.Upload(ctx, input.Filename, input.ContentType, input.Image)
	if err != nil {
		s.log.StorageError("upload", input.Filename, err)
		return nil, apperr.Upstream("failed to store uploaded image", err)
	}

	project := domain.NewProject(url, input.UserDescription, input.Metadata)
	if err := s.projects.Create(ctx, project); err != nil {
		s.log.DatabaseError("create project", err)
		return nil, err
	}

	s.log.Info("project created", "project_id", project.ID, "image_url", url)
	return project, nil
}

// GenerateVisualization drives a project through analyzing, analyzed,
// generating and generated: two provider calls, one storage write, then the
// pricing engine. Any failure moves the project to the error state with the
// captured message and re-raises; partial state (a completed analysis, say)
// is preserved for diagnostics, not rolled back.
func (s *Service) GenerateVisualization(ctx context.Context, projectID uuid.UUID, location string) (*domain.Project, error) {
	if location == "" {
		location = DefaultLocation
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.runGeneration(ctx, project, location); err != nil {
		if markErr := project.MarkError(err.Error()); markErr == nil {
			if updateErr := s.projects.Update(ctx, project); updateErr != nil {
				s.log.DatabaseError("persist error state", updateErr)
			}
		}
		return nil, err
	}

	return project, nil
}

func (s *Service) runGeneration(ctx context.Context, project *domain.Project, location string) error {
	ctx = context.WithValue(ctx, logger.ProjectIDKey, project.ID.String())
	log := s.log.WithContext(ctx)

	if err := project.MarkAnalyzing(); err != nil {
		return err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}

	description := ""
	if project.UserDescription != nil {
		description = *project.UserDescription
	}

	analysis, err := s.callAnalyze(ctx, project.OriginalImageURL, description)
	if err != nil {
		log.ProviderError(s.provider.Name(), "analyze", project.ID.String(), err)
		return err
	}

	if err := project.CompleteAnalysis(analysis); err != nil {
		return err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}

	if err := project.MarkGenerating(); err != nil {
		return err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}

	image, err := s.callGenerate(ctx, project.OriginalImageURL, analysis, description)
	if err != nil {
		log.ProviderError(s.provider.Name(), "generate", project.ID.String(), err)
		return err
	}

	fileName := fmt.Sprintf("generated-%s%s", project.ID, extensionFor(image.ContentType))
	url, err := s.store.Upload(ctx, fileName, image.ContentType, image.Data)
	if err != nil {
		log.StorageError("upload", fileName, err)
		return apperr.Upstream("failed to store generated image", err)
	}

	estimation := s.engine.Estimate(analysis, location)

	if err := project.CompleteGeneration(url, estimation); err != nil {
		return err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.ProjectGenerated{
		BaseEvent: events.NewBaseEvent(),
		ProjectID: project.ID,
		Location:  location,
		TotalMin:  estimation.TotalMin,
		TotalMax:  estimation.TotalMax,
	})

	return nil
}

func (s *Service) callAnalyze(ctx context.Context, imageURL, description string) (domain.Analysis, error) {
	stepCtx, cancel := s.stepContext(ctx)
	defer cancel()

	analysis, err := s.provider.AnalyzeImage(stepCtx, imageURL, description)
	if err != nil {
		return domain.Analysis{}, wrapProviderErr("image analysis", err)
	}
	return analysis, nil
}

func (s *Service) callGenerate(ctx context.Context, imageURL string, analysis domain.Analysis, description string) (ports.GeneratedImage, error) {
	stepCtx, cancel := s.stepContext(ctx)
	defer cancel()

	image, err := s.provider.GenerateImage(stepCtx, imageURL, analysis, description)
	if err != nil {
		return ports.GeneratedImage{}, wrapProviderErr("image generation", err)
	}
	return image, nil
}

func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.stepTimeout)
}

// wrapProviderErr types an opaque provider failure, surfacing deadline
// expiry as a distinct timeout so the boundary can map it to 504.
func wrapProviderErr(step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(step+" took too long", err)
	}
	return apperr.Upstream(step+" failed", err)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

// UnlockProject validates the email, creates the lead with the project's
// attribution metadata, and moves the project to unlocked. This is pure data
// capture: no outbound email to the visitor.
func (s *Service) UnlockProject(ctx context.Context, projectID uuid.UUID, rawEmail string) (*domain.Project, *domain.Lead, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	if !project.CanBeUnlocked() {
		return nil, nil, apperr.Precondition("project cannot be unlocked yet")
	}

	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		return nil, nil, err
	}

	lead := domain.NewLead(email, project.ID, project.Metadata)
	if err := s.leads.CreateLead(ctx, lead); err != nil {
		return nil, nil, err
	}

	if err := project.Unlock(email); err != nil {
		return nil, nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, nil, err
	}

	s.log.LeadCaptured(project.ID.String(), email.String())
	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		ProjectID: project.ID,
		Email:     email.String(),
		Source:    project.Metadata.Source,
	})

	return project, lead, nil
}

// GetProject loads a project by id. Redaction for locked projects is a
// presentation concern, decided by the boundary via IsUnlocked.
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.projects.GetByID(ctx, projectID)
}

// GetProjectsByEmail lists the projects a visitor has unlocked.
func (s *Service) GetProjectsByEmail(ctx context.Context, rawEmail string) ([]*domain.Project, error) {
	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByLeadEmail(ctx, email.String())
}

// TrackLeadAction stamps an engagement flag on the project's lead. A missing
// lead is a silent no-op: tracking can arrive before unlock or for flows
// that never captured an email, and must never fail the caller. Repeated
// actions are idempotent; the first timestamp is kept.
func (s *Service) TrackLeadAction(ctx context.Context, projectID uuid.UUID, kind domain.ActionKind) error {
	lead, err := s.leads.GetLeadByProjectID(ctx, projectID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	changed, known := lead.Track(kind)
	if !known || !changed {
		return nil
	}

	return s.leads.UpdateLead(ctx, lead)
}
