package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Исходы построения ленты.
const (
	FeedOutcomeServed     = "served"
	FeedOutcomeComingSoon = "coming_soon"
	FeedOutcomeNotFound   = "not_found"
	FeedOutcomeError      = "error"
)

var (
	FeedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topic_feed_requests_total",
		Help: "Запросы ленты темы по исходу",
	}, []string{"outcome"})

	FeedBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "topic_feed_build_seconds",
		Help:    "Время построения ленты темы",
		Buckets: prometheus.DefBuckets,
	})

	TagJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tag_jobs_total",
		Help: "Обработанные задачи тегирования по статусу",
	}, []string{"status"})

	EdgesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_topic_edges_written_total",
		Help: "Количество записанных связей контента с темами",
	})

	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_cache_requests_total",
		Help: "Обращения к кэшу по результату",
	}, []string{"key", "result"})

	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "store_breaker_state",
		Help: "Состояние circuit breaker хранилища: 0 closed, 1 half-open, 2 open",
	}, []string{"name"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FeedRequestsTotal,
		FeedBuildSeconds,
		TagJobsTotal,
		EdgesWrittenTotal,
		CacheRequestsTotal,
		BreakerState,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// Handler отдаёт метрики для встраивания в основной роутер.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveFeed фиксирует исход и длительность построения ленты.
func ObserveFeed(outcome string, start time.Time) {
	FeedRequestsTotal.WithLabelValues(outcome).Inc()
	FeedBuildSeconds.Observe(time.Since(start).Seconds())
}

// IncTagJob увеличивает счётчик задач тегирования.
func IncTagJob(status string) {
	TagJobsTotal.WithLabelValues(status).Inc()
}

// AddEdgesWritten учитывает записанные связи.
func AddEdgesWritten(n int) {
	if n > 0 {
		EdgesWrittenTotal.Add(float64(n))
	}
}

// ObserveCache учитывает попадание или промах кэша.
func ObserveCache(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(key, result).Inc()
}

// SetBreakerState публикует состояние circuit breaker.
func SetBreakerState(name string, state float64) {
	BreakerState.WithLabelValues(name).Set(state)
}
