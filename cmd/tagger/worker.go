package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

const maxDeliveryAttempts = 5

// Статусы задач для метрики tag_jobs_total.
const (
	jobStatusCompleted = "completed"
	jobStatusDropped   = "dropped"
	jobStatusRetried   = "retried"
	jobStatusFailed    = "failed"
)

type jobHandler interface {
	HandleJob(ctx context.Context, job domain.TagJob) ([]domain.ContentTopicEdge, error)
}

type jobWorker struct {
	log        zerolog.Logger
	queue      domain.TagQueue
	handler    jobHandler
	retryDelay time.Duration
}

// Run читает очередь до отмены ctx.
func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("tagger: ошибка чтения очереди")
			if !w.sleep(ctx) {
				return
			}
			continue
		}
		w.process(ctx, job)
	}
}

// process возвращает статус обработки задачи.
func (w *jobWorker) process(ctx context.Context, job domain.TagJob) string {
	jobLog := w.log.With().
		Str("job_id", job.ID).
		Str("content_id", job.ContentID).
		Str("kind", string(job.Kind)).
		Str("cause", string(job.Cause)).
		Int("attempt", job.Attempt).
		Logger()

	status := w.handle(ctx, job, jobLog)
	metrics.IncTagJob(status)
	return status
}

func (w *jobWorker) handle(ctx context.Context, job domain.TagJob, jobLog zerolog.Logger) string {
	edges, err := w.handler.HandleJob(ctx, job)
	switch {
	case err == nil:
		jobLog.Info().Int("edges", len(edges)).Msg("tagger: задача выполнена")
		return jobStatusCompleted
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		jobLog.Warn().Err(err).Msg("tagger: задача отброшена")
		return jobStatusDropped
	case job.Attempt+1 >= maxDeliveryAttempts:
		jobLog.Error().Err(err).Msg("tagger: достигнут предел попыток")
		return jobStatusFailed
	}

	jobLog.Warn().Err(err).Msg("tagger: задача завершилась ошибкой, повторим позже")
	if !w.sleep(ctx) {
		return jobStatusFailed
	}
	job.Attempt++
	if err := w.queue.Enqueue(ctx, job); err != nil {
		jobLog.Error().Err(err).Msg("tagger: не удалось вернуть задачу в очередь")
		return jobStatusFailed
	}
	return jobStatusRetried
}

func (w *jobWorker) sleep(ctx context.Context) bool {
	delay := w.retryDelay
	if delay <= 0 {
		delay = time.Second
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
