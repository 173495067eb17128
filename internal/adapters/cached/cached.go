// Package cached кэширует список тем и счётчики явных связей.
package cached

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/cache"
	"estate-discovery/internal/infra/metrics"
)

const (
	topicsKey      = "topics:active"
	countPrefix    = "count:"
	countGenPrefix = "countgen:"
	// initialGen используется, пока тема ни разу не перетегировалась.
	initialGen = "0"
)

// CountKey возвращает ключ кэша счётчика связей темы в поколении gen.
func CountKey(topicID, gen string) string {
	return countPrefix + topicID + ":" + gen
}

// CountGenKey возвращает ключ текущего поколения счётчика темы. Хранится без TTL.
func CountGenKey(topicID string) string {
	return countGenPrefix + topicID
}

// Topics кэширует ListActiveTopics. Поиск по slug и ID идёт мимо кэша.
type Topics struct {
	next   domain.TopicRepo
	cache  domain.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

var _ domain.TopicRepo = (*Topics)(nil)

// NewTopics создаёт кэширующий реестр тем.
func NewTopics(next domain.TopicRepo, c domain.Cache, ttl time.Duration, logger zerolog.Logger) *Topics {
	return &Topics{next: next, cache: c, ttl: ttl, logger: logger}
}

// cachedTopic повторяет domain.Topic, но сохраняет служебные поля, скрытые из API.
type cachedTopic struct {
	domain.Topic
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Topics) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	if data, err := t.cache.Get(topicsKey); err == nil {
		var stored []cachedTopic
		if err := json.Unmarshal(data, &stored); err == nil {
			metrics.ObserveCache("topics", true)
			topics := make([]domain.Topic, 0, len(stored))
			for _, s := range stored {
				topic := s.Topic
				topic.IsActive = s.IsActive
				topic.CreatedAt = s.CreatedAt
				topic.UpdatedAt = s.UpdatedAt
				topics = append(topics, topic)
			}
			return topics, nil
		}
		t.logger.Warn().Msg("cached: corrupt topics entry, reloading")
	} else if !errors.Is(err, cache.ErrMiss) {
		t.logger.Warn().Err(err).Msg("cached: topics lookup failed")
	}
	metrics.ObserveCache("topics", false)

	topics, err := t.next.ListActiveTopics(ctx)
	if err != nil {
		return nil, err
	}
	stored := make([]cachedTopic, 0, len(topics))
	for _, topic := range topics {
		stored = append(stored, cachedTopic{Topic: topic, IsActive: topic.IsActive, CreatedAt: topic.CreatedAt, UpdatedAt: topic.UpdatedAt})
	}
	if data, err := json.Marshal(stored); err == nil {
		if err := t.cache.Set(topicsKey, data, t.ttl); err != nil {
			t.logger.Warn().Err(err).Msg("cached: store topics failed")
		}
	}
	return topics, nil
}

func (t *Topics) GetTopicBySlug(ctx context.Context, slug string) (domain.Topic, error) {
	return t.next.GetTopicBySlug(ctx, slug)
}

func (t *Topics) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	return t.next.GetTopicByID(ctx, id)
}

// InvalidateTopics сбрасывает закэшированный список тем.
func (t *Topics) InvalidateTopics() error {
	return t.cache.Delete(topicsKey)
}

// Edges кэширует CountTopicContent и меняет поколение счётчиков затронутых тем при перетегировании.
type Edges struct {
	next   domain.EdgeRepo
	cache  domain.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

var _ domain.EdgeRepo = (*Edges)(nil)

// NewEdges создаёт кэширующее хранилище связей.
func NewEdges(next domain.EdgeRepo, c domain.Cache, ttl time.Duration, logger zerolog.Logger) *Edges {
	return &Edges{next: next, cache: c, ttl: ttl, logger: logger}
}

// CountTopicContent читает счётчик из кэша текущего поколения темы.
// Значение, посчитанное до смены поколения, попадает под старый ключ и больше не читается.
func (e *Edges) CountTopicContent(ctx context.Context, topicID string) (int, error) {
	gen, ok := e.generation(topicID)
	if !ok {
		metrics.ObserveCache("count", false)
		return e.next.CountTopicContent(ctx, topicID)
	}
	key := CountKey(topicID, gen)
	if data, err := e.cache.Get(key); err == nil {
		if n, err := strconv.Atoi(string(data)); err == nil {
			metrics.ObserveCache("count", true)
			return n, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		e.logger.Warn().Err(err).Str("topic_id", topicID).Msg("cached: count lookup failed")
	}
	metrics.ObserveCache("count", false)

	n, err := e.next.CountTopicContent(ctx, topicID)
	if err != nil {
		return 0, err
	}
	if err := e.cache.Set(key, []byte(strconv.Itoa(n)), e.ttl); err != nil {
		e.logger.Warn().Err(err).Str("topic_id", topicID).Msg("cached: store count failed")
	}
	return n, nil
}

// generation возвращает поколение счётчика темы. ok=false, если кэш недоступен.
func (e *Edges) generation(topicID string) (string, bool) {
	data, err := e.cache.Get(CountGenKey(topicID))
	switch {
	case err == nil:
		return string(data), true
	case errors.Is(err, cache.ErrMiss):
		return initialGen, true
	default:
		e.logger.Warn().Err(err).Str("topic_id", topicID).Msg("cached: count generation lookup failed")
		return "", false
	}
}

// ReplaceContentTopics заменяет связи и переводит счётчики старых и новых тем в новое поколение.
func (e *Edges) ReplaceContentTopics(ctx context.Context, contentID string, edges []domain.ContentTopicEdge) error {
	previous, err := e.next.ListContentTopics(ctx, contentID)
	if err != nil {
		return err
	}
	if err := e.next.ReplaceContentTopics(ctx, contentID, edges); err != nil {
		return err
	}
	affected := make(map[string]struct{}, len(previous)+len(edges))
	for _, list := range [][]domain.ContentTopicEdge{previous, edges} {
		for _, edge := range list {
			if _, ok := affected[edge.TopicID]; ok {
				continue
			}
			affected[edge.TopicID] = struct{}{}
			if err := e.cache.Set(CountGenKey(edge.TopicID), []byte(uuid.NewString()), 0); err != nil {
				e.logger.Warn().Err(err).Str("content_id", contentID).Str("topic_id", edge.TopicID).Msg("cached: bump count generation failed")
			}
		}
	}
	return nil
}

func (e *Edges) ListContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error) {
	return e.next.ListContentTopics(ctx, contentID)
}

func (e *Edges) ListTopicContentIDs(ctx context.Context, topicID string) ([]string, error) {
	return e.next.ListTopicContentIDs(ctx, topicID)
}
