package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anishk6674/kanchan-chilled/internal/config"
	"github.com/anishk6674/kanchan-chilled/internal/db"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
	"github.com/anishk6674/kanchan-chilled/internal/resilience"
)

// Dependencies holds the shared infrastructure both binaries start with.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Tasks    *asynq.Client
	Registry prometheus.Registerer
	Domain   *obs.DomainMetrics
	Breakers *resilience.Metrics
}

// Options tunes Open.
type Options struct {
	// Name is reported as the Postgres application_name.
	Name             string
	MetricsNamespace string
	RedisMetrics     bool
	Registry         prometheus.Registerer
}

// Open connects Postgres and Redis, runs migrations when configured and
// registers the domain collectors.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{ApplicationName: opts.Name})
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if opts.RedisMetrics {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	namespace := opts.MetricsNamespace
	if namespace == "" {
		namespace = "kanchan"
	}

	return &Dependencies{
		Config:   cfg,
		Logger:   logger,
		DB:       pool,
		Redis:    redisClient,
		Tasks:    asynq.NewClientFromRedisClient(redisClient),
		Registry: reg,
		Domain:   obs.NewDomainMetrics(namespace, reg),
		Breakers: resilience.NewMetrics(namespace, reg),
	}, nil
}

// Close releases the connections opened by Open.
func (d *Dependencies) Close() {
	if d.Tasks != nil {
		if err := d.Tasks.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
