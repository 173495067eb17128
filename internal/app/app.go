// Package app собирает общие зависимости бинарников из конфига.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"estate-discovery/internal/adapters/breaker"
	"estate-discovery/internal/adapters/cached"
	"estate-discovery/internal/adapters/memstore"
	"estate-discovery/internal/adapters/repo"
	"estate-discovery/internal/adapters/seed"
	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/cache"
	"estate-discovery/internal/infra/config"
	"estate-discovery/internal/infra/db"
	applog "estate-discovery/internal/infra/log"
	"estate-discovery/internal/infra/queue"
	"estate-discovery/internal/usecase/discovery"
	"estate-discovery/internal/usecase/tagging"
)

// Deps — собранные хранилища, сервисы и очередь.
type Deps struct {
	Topics   domain.TopicRepo
	Edges    domain.EdgeRepo
	Backend  *breaker.Store
	Postgres *repo.Postgres

	Discovery *discovery.Service
	Tagging   *tagging.Service
	// Queue равна nil при QUEUE_DRIVER=none.
	Queue domain.TagQueue

	closers []func()
}

// Close освобождает подключения в обратном порядке.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Build подключает хранилище, кэш и очередь согласно cfg.
func Build(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*Deps, error) {
	d := &Deps{}

	var (
		backend breaker.Backend
		mem     *memstore.Store
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem = memstore.New()
		backend = mem
	default:
		pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		d.Postgres = repo.NewPostgres(pool)
		backend = d.Postgres
	}

	d.Backend = breaker.New(backend, breaker.Settings{
		Name:     cfg.StoreDriver,
		Failures: cfg.Breaker.Failures,
		Timeout:  cfg.Breaker.Timeout,
	}, applog.Component(logger, "breaker"))
	d.Topics = d.Backend
	d.Edges = d.Backend

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		c := cache.NewRedis(redisClient, cfg.Cache.Prefix)
		cacheLog := applog.Component(logger, "cache")
		d.Topics = cached.NewTopics(d.Backend, c, cfg.Cache.TopicsTTL, cacheLog)
		d.Edges = cached.NewEdges(d.Backend, c, cfg.Cache.CountTTL, cacheLog)
	}

	d.Discovery = discovery.NewService(d.Topics, d.Edges, d.Backend, d.Backend, d.Backend, discovery.Config{
		MinTopicContent:  cfg.Discovery.MinTopicContent,
		RelatedLimit:     cfg.Discovery.RelatedLimit,
		DefaultPageLimit: cfg.Discovery.DefaultPageLimit,
		MaxPageLimit:     cfg.Discovery.MaxPageLimit,
	}, applog.Component(logger, "discovery"))
	d.Tagging = tagging.NewService(d.Topics, d.Edges, d.Backend, d.Backend, d.Backend,
		cfg.Discovery.SuggestMinScore, applog.Component(logger, "tagging"))

	switch cfg.Queues.Driver {
	case config.QueueDriverRedis:
		d.Queue = queue.NewRedisTagQueue(redisClient, cfg.Queues.TagQueueKey)
	case config.QueueDriverRabbitMQ:
		q, err := queue.NewRabbitTagQueue(cfg.Queues.RabbitMQURL, cfg.Queues.RabbitMQManagementURL, cfg.Queues.TagQueueKey)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init rabbitmq queue: %w", err)
		}
		d.Queue = q
	}

	if mem != nil && cfg.SeedFile != "" {
		file, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			d.Close()
			return nil, err
		}
		written, err := seed.Apply(ctx, file, mem, d.Tagging)
		if err != nil {
			d.Close()
			return nil, err
		}
		logger.Info().Str("file", cfg.SeedFile).Int("topics", len(file.Topics)).Int("edges", written).Msg("app: seed загружен")
	}
	return d, nil
}

// Migrate применяет схему Postgres. Для memory хранилища ничего не делает.
func (d *Deps) Migrate(ctx context.Context) error {
	if d.Postgres == nil {
		return nil
	}
	return d.Postgres.EnsureSchema(ctx)
}
