package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"estate-discovery/internal/app"
	"estate-discovery/internal/infra/config"
	applog "estate-discovery/internal/infra/log"
	"estate-discovery/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("tagger: не удалось собрать зависимости")
	}
	defer deps.Close()

	if deps.Queue == nil {
		logger.Fatal().Msg("tagger: очередь не настроена (QUEUE_DRIVER)")
	}

	worker := &jobWorker{
		log:        applog.Component(logger, "tagger"),
		queue:      deps.Queue,
		handler:    deps.Tagging,
		retryDelay: 2 * time.Second,
	}

	logger.Info().Str("queue", cfg.Queues.TagQueueKey).Msg("tagger: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("tagger: остановлен")
}
