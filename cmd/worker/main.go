package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/anishk6674/kanchan-chilled/internal/app"
	"github.com/anishk6674/kanchan-chilled/internal/config"
	"github.com/anishk6674/kanchan-chilled/internal/jobs"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(startCtx, cfg, logger, app.Options{
		Name:             "kanchan-worker",
		MetricsNamespace: envOrDefault("OBS_METRICS_NAMESPACE", "kanchan"),
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	services := app.NewServices(deps, app.PGStores(deps.DB), app.Sender(deps))

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for queue")
	}

	generate := &jobs.GenerateJob{
		Bills:   services.Bills,
		Prices:  services.Prices,
		Locks:   services.Locks,
		LockTTL: cfg.BillLockTTL,
		Logger:  logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpt,
		Concurrency: cfg.QueueConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBillsGenerate, Handler: generate.Handle},
		},
		Cron: []jobs.CronJob{{
			Name: "enqueue previous month bills",
			Spec: cfg.BillGenerateCron,
			Fn: func(ctx context.Context) error {
				month := jobs.PreviousMonth(time.Now())
				id, err := services.Jobs.EnqueueGenerate(ctx, month)
				if err != nil {
					return err
				}
				logger.Info().Str("month", month.Format("2006-01")).Str("task_id", id).Msg("bill_run_enqueued")
				return nil
			},
		}},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise worker")
	}

	logger.Info().Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
