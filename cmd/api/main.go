package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"estate-discovery/internal/app"
	"estate-discovery/internal/infra/config"
	httpinfra "estate-discovery/internal/infra/http"
	applog "estate-discovery/internal/infra/log"
	"estate-discovery/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось собрать зависимости")
	}
	defer deps.Close()

	if err := deps.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось применить схему БД")
	}

	if cfg.AdminToken == "" {
		logger.Warn().Msg("api: ADMIN_TOKEN не задан, админские маршруты открыты")
	}

	srv := httpinfra.NewServer(applog.Component(logger, "http"))
	httpinfra.NewTopicHandler(deps.Discovery, applog.Component(logger, "topics")).Register(srv.Router)
	httpinfra.NewAdminHandler(deps.Tagging, deps.Queue, cfg.AdminToken, applog.Component(logger, "admin")).Register(srv.Router)

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: ошибка остановки сервера")
	}
}
