// Package breaker защищает хранилище circuit breaker'ом: после серии сбоев
// запросы сразу получают domain.ErrStoreUnavailable, не дожидаясь таймаутов БД.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// Backend — полный набор репозиториев, который оборачивает Store.
type Backend interface {
	domain.TopicRepo
	domain.EdgeRepo
	domain.CardRepo
	domain.ShortRepo
	domain.BusinessMetricRepo
}

// Settings задаёт пороги срабатывания.
type Settings struct {
	Name     string
	Failures uint32
	Timeout  time.Duration
}

// Store реализует Backend поверх другого Backend.
type Store struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

var _ Backend = (*Store)(nil)

// New создаёт обёртку. Failures подряд идущих сбоев открывают цепь на Timeout.
func New(next Backend, st Settings, logger zerolog.Logger) *Store {
	if st.Name == "" {
		st.Name = "store"
	}
	if st.Failures == 0 {
		st.Failures = 5
	}
	if st.Timeout <= 0 {
		st.Timeout = 30 * time.Second
	}
	metrics.SetBreakerState(st.Name, stateToFloat(gobreaker.StateClosed))
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: 1,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= st.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker: state changed")
			metrics.SetBreakerState(name, stateToFloat(to))
		},
		IsSuccessful: isSuccessful,
	})
	return &Store{next: next, cb: cb, name: st.Name}
}

// State возвращает текущее состояние цепи.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

// isSuccessful считает сбоем только недоступность хранилища.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return !errors.Is(err, domain.ErrStoreUnavailable)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func run[T any](s *Store, fn func() (T, error)) (T, error) {
	res, err := s.cb.Execute(func() (any, error) {
		return fn()
	})
	var zero T
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w: %w", s.name, domain.ErrStoreUnavailable, err)
	}
	v, ok := res.(T)
	if !ok {
		return zero, err
	}
	return v, err
}

func runErr(s *Store, fn func() error) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (s *Store) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	return run(s, func() ([]domain.Topic, error) { return s.next.ListActiveTopics(ctx) })
}

func (s *Store) GetTopicBySlug(ctx context.Context, slug string) (domain.Topic, error) {
	return run(s, func() (domain.Topic, error) { return s.next.GetTopicBySlug(ctx, slug) })
}

func (s *Store) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	return run(s, func() (domain.Topic, error) { return s.next.GetTopicByID(ctx, id) })
}

func (s *Store) ReplaceContentTopics(ctx context.Context, contentID string, edges []domain.ContentTopicEdge) error {
	return runErr(s, func() error { return s.next.ReplaceContentTopics(ctx, contentID, edges) })
}

func (s *Store) ListContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error) {
	return run(s, func() ([]domain.ContentTopicEdge, error) { return s.next.ListContentTopics(ctx, contentID) })
}

func (s *Store) ListTopicContentIDs(ctx context.Context, topicID string) ([]string, error) {
	return run(s, func() ([]string, error) { return s.next.ListTopicContentIDs(ctx, topicID) })
}

func (s *Store) CountTopicContent(ctx context.Context, topicID string) (int, error) {
	return run(s, func() (int, error) { return s.next.CountTopicContent(ctx, topicID) })
}

func (s *Store) QueryCards(ctx context.Context, q domain.CardQuery) ([]domain.Card, error) {
	return run(s, func() ([]domain.Card, error) { return s.next.QueryCards(ctx, q) })
}

func (s *Store) GetCard(ctx context.Context, id string) (domain.Card, error) {
	return run(s, func() (domain.Card, error) { return s.next.GetCard(ctx, id) })
}

func (s *Store) QueryShorts(ctx context.Context, q domain.ShortQuery) ([]domain.Short, error) {
	return run(s, func() ([]domain.Short, error) { return s.next.QueryShorts(ctx, q) })
}

func (s *Store) GetShort(ctx context.Context, id string) (domain.Short, error) {
	return run(s, func() (domain.Short, error) { return s.next.GetShort(ctx, id) })
}

func (s *Store) RecordBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	return runErr(s, func() error { return s.next.RecordBusinessMetric(ctx, metric) })
}
