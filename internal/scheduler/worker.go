package scheduler

import (
	"context"
	"fmt"
	"time"

	"greenviz_backend/internal/projects/repository"
	"greenviz_backend/platform/config"
	"greenviz_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const staleErrorMessage = "generation timed out"

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		log:    log,
	}

	mux.HandleFunc(TaskStaleProjectSweep, w.handleStaleProjectSweep)

	return w, nil
}

// handleStaleProjectSweep fails every project stuck in analyzing or
// generating past the cutoff. A crashed or interrupted generation otherwise
// leaves the project in limbo forever; the error state lets the client
// retry.
func (w *Worker) handleStaleProjectSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStaleProjectSweepPayload(task)
	if err != nil {
		return err
	}

	stale, err := w.repo.ListStale(ctx, payload.Cutoff)
	if err != nil {
		return err
	}

	var failed int
	for _, project := range stale {
		if err := project.MarkError(staleErrorMessage); err != nil {
			continue
		}
		if err := w.repo.Update(ctx, project); err != nil {
			w.log.Warn("stale sweep update failed", "project_id", project.ID, "error", err)
			continue
		}
		failed++
	}

	if failed > 0 {
		w.log.Info("stale sweep moved stuck projects to error", "count", failed, "cutoff", payload.Cutoff)
	}

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// SweepLoop periodically enqueues a stale-project sweep. It runs until the
// context is cancelled.
func SweepLoop(ctx context.Context, sweeper StaleSweeper, staleAge, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	enqueue := func() {
		if err := sweeper.ScheduleStaleSweep(ctx, time.Now().Add(-staleAge)); err != nil {
			log.Warn("failed to enqueue stale sweep", "error", err)
		}
	}

	enqueue()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}
