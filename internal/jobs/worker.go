package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TaskHandler binds a task type to its handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronJob runs Fn on a standard five-field cron Spec.
type CronJob struct {
	Name string
	Spec string
	Fn   func(context.Context) error
}

// WorkerConfig collects what the worker needs to start.
type WorkerConfig struct {
	RedisOpts   asynq.RedisConnOpt
	Concurrency int
	Logger      zerolog.Logger
	Handlers    []TaskHandler
	Cron        []CronJob
}

// Worker runs the asynq server and the cron schedule together.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewWorker builds a Worker. Invalid cron specs are reported here.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	c, err := NewCron(cfg.Cron, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Worker{server: srv, mux: mux, cron: c, logger: cfg.Logger}, nil
}

// NewCron registers jobs on a UTC cron schedule without starting it.
func NewCron(jobs []CronJob, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	for _, job := range jobs {
		if job.Spec == "" || job.Fn == nil {
			continue
		}
		if _, err := c.AddFunc(job.Spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := job.Fn(ctx); err != nil {
				logger.Error().Err(err).Str("job", job.Name).Msg("cron_job_failed")
				return
			}
			logger.Info().Str("job", job.Name).Msg("cron_job_ran")
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info().Int("cron_entries", len(w.cron.Entries())).Msg("worker_started")

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.server.Shutdown()
	return ctx.Err()
}
