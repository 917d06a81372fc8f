// Package projects provides the visualization projects bounded context
// module. This file defines the module that encapsulates all projects setup
// and route registration.
package projects

import (
	"greenviz_backend/internal/events"
	apphttp "greenviz_backend/internal/http"
	"greenviz_backend/internal/projects/handler"
	"greenviz_backend/internal/projects/ports"
	"greenviz_backend/internal/projects/pricing"
	"greenviz_backend/internal/projects/repository"
	"greenviz_backend/internal/projects/service"
	"greenviz_backend/platform/config"
	"greenviz_backend/platform/logger"
	"greenviz_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the slice of application configuration the module needs.
type Config interface {
	config.AIConfig
	config.UploadConfig
}

// Module is the projects bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the projects module. The AI provider and
// image store are built by the composition root and injected here.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	val *validator.Validator,
	cfg Config,
	log *logger.Logger,
	provider ports.Provider,
	store ports.ImageStore,
) *Module {
	repo := repository.New(pool)

	svc := service.New(
		repo,
		repo,
		provider,
		store,
		pricing.NewEngine(pricing.DefaultTable),
		eventBus,
		log,
		cfg.GetAIGenerationTimeout(),
	)

	return &Module{
		handler: handler.New(svc, cfg, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier for logging.
func (m *Module) Name() string {
	return "projects"
}

// RegisterRoutes mounts the projects routes under /api/v1.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Service exposes the orchestrator for other composition-root consumers
// (e.g., the janitor command).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the repository for maintenance tooling.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}
