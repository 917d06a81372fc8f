package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenviz_backend/internal/adapters/storage"
	aigemini "greenviz_backend/internal/ai/gemini"
	"greenviz_backend/internal/ai/openrouter"
	"greenviz_backend/internal/events"
	apphttp "greenviz_backend/internal/http"
	"greenviz_backend/internal/http/router"
	"greenviz_backend/internal/notification"
	"greenviz_backend/internal/projects"
	"greenviz_backend/internal/projects/ports"
	"greenviz_backend/platform/config"
	"greenviz_backend/platform/db"
	"greenviz_backend/platform/logger"
	"greenviz_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for project images (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	var imageStore *storage.ProjectImageStore
	if err := withRetry(ctx, log, "ensure project images bucket", 5, 2*time.Second, func() error {
		store, err := storage.NewProjectImageStore(ctx, storageSvc, cfg.GetMinioBucketProjectImages())
		if err != nil {
			return err
		}
		imageStore = store
		return nil
	}); err != nil {
		log.Error("failed to initialize image store", "error", err)
		panic("failed to initialize image store: " + err.Error())
	}
	log.Info("storage service initialized", "projectImagesBucket", cfg.GetMinioBucketProjectImages())

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize AI provider", "error", err)
		panic("failed to initialize AI provider: " + err.Error())
	}
	log.Info("AI provider initialized", "provider", provider.Name())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	projectsModule := projects.NewModule(pool, eventBus, val, cfg, log, provider, imageStore)

	// Notifications subscribe to lead events; no HTTP surface.
	_ = notification.NewModule(eventBus, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			projectsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newProvider selects the configured AI backend.
func newProvider(ctx context.Context, cfg *config.Config) (ports.Provider, error) {
	switch cfg.GetAIProvider() {
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.GetOpenRouterAPIKey(),
			Referer: "https://greenviz.fr",
			Title:   "GreenViz",
		}), nil
	default:
		return aigemini.New(ctx, cfg.GetGeminiAPIKey())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
