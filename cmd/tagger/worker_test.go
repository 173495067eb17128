package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
)

type memQueue struct {
	mu   sync.Mutex
	jobs []domain.TagJob
}

func (q *memQueue) Enqueue(ctx context.Context, job domain.TagJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Pop(ctx context.Context) (domain.TagJob, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return domain.TagJob{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

type stubHandler struct {
	mu    sync.Mutex
	err   error
	calls []domain.TagJob
}

func (h *stubHandler) HandleJob(ctx context.Context, job domain.TagJob) ([]domain.ContentTopicEdge, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, job)
	if h.err != nil {
		return nil, h.err
	}
	return []domain.ContentTopicEdge{{ContentID: job.ContentID, TopicID: "pets", RelevanceScore: 5}}, nil
}

func newWorker(q domain.TagQueue, h jobHandler) *jobWorker {
	return &jobWorker{log: zerolog.Nop(), queue: q, handler: h, retryDelay: time.Millisecond}
}

func TestProcessCompleted(t *testing.T) {
	w := newWorker(&memQueue{}, &stubHandler{})
	if status := w.process(context.Background(), domain.TagJob{ID: "j1", ContentID: "card-1"}); status != jobStatusCompleted {
		t.Fatalf("ожидали completed, получили %s", status)
	}
}

func TestProcessDropsValidationAndNotFound(t *testing.T) {
	for _, err := range []error{
		domain.NewValidationError("kind", "unknown content kind"),
		fmt.Errorf("load card: %w", domain.ErrContentNotFound),
	} {
		q := &memQueue{}
		w := newWorker(q, &stubHandler{err: err})
		if status := w.process(context.Background(), domain.TagJob{ID: "j1", ContentID: "card-1"}); status != jobStatusDropped {
			t.Fatalf("%v: ожидали dropped, получили %s", err, status)
		}
		if len(q.jobs) != 0 {
			t.Fatalf("отброшенная задача не должна возвращаться в очередь")
		}
	}
}

func TestProcessRetriesStoreFailures(t *testing.T) {
	q := &memQueue{}
	w := newWorker(q, &stubHandler{err: fmt.Errorf("replace: %w", domain.ErrStoreUnavailable)})

	if status := w.process(context.Background(), domain.TagJob{ID: "j1", ContentID: "card-1"}); status != jobStatusRetried {
		t.Fatalf("ожидали retried, получили %s", status)
	}
	if len(q.jobs) != 1 || q.jobs[0].Attempt != 1 {
		t.Fatalf("ожидали повторную постановку с attempt=1: %+v", q.jobs)
	}

	last := domain.TagJob{ID: "j1", ContentID: "card-1", Attempt: maxDeliveryAttempts - 1}
	if status := w.process(context.Background(), last); status != jobStatusFailed {
		t.Fatalf("ожидали failed на последней попытке, получили %s", status)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("после исчерпания попыток задача не должна возвращаться в очередь")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := &memQueue{}
	h := &stubHandler{}
	_ = q.Enqueue(context.Background(), domain.TagJob{ID: "j1", ContentID: "card-1"})
	_ = q.Enqueue(context.Background(), domain.TagJob{ID: "j2", ContentID: "card-2"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newWorker(q, h).Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		h.mu.Lock()
		n := len(h.calls)
		h.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("воркер не обработал задачи")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("воркер не остановился после отмены контекста")
	}
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("ожидали отменённый контекст")
	}
}
