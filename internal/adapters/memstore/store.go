// Package memstore хранит темы, связи и контент в памяти процесса.
// Используется в тестах и в режиме STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"estate-discovery/internal/domain"
)

// Store реализует все доменные репозитории поверх map.
type Store struct {
	mu      sync.RWMutex
	topics  map[string]domain.Topic
	edges   map[string]map[string]domain.ContentTopicEdge // contentID -> topicID -> edge
	cards   map[string]domain.Card
	shorts  map[string]domain.Short
	metrics []domain.BusinessMetric
}

var (
	_ domain.TopicRepo          = (*Store)(nil)
	_ domain.EdgeRepo           = (*Store)(nil)
	_ domain.CardRepo           = (*Store)(nil)
	_ domain.ShortRepo          = (*Store)(nil)
	_ domain.BusinessMetricRepo = (*Store)(nil)
)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		topics: make(map[string]domain.Topic),
		edges:  make(map[string]map[string]domain.ContentTopicEdge),
		cards:  make(map[string]domain.Card),
		shorts: make(map[string]domain.Short),
	}
}

// PutTopic добавляет или заменяет тему.
func (s *Store) PutTopic(topic domain.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic.ID] = topic
}

// PutCard добавляет или заменяет карточку.
func (s *Store) PutCard(card domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ID] = card
}

// PutShort добавляет или заменяет short.
func (s *Store) PutShort(short domain.Short) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shorts[short.ID] = short
}

// ListActiveTopics реализует domain.TopicRepo.
func (s *Store) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Topic, 0, len(s.topics))
	for _, topic := range s.topics {
		if topic.IsActive {
			out = append(out, topic)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetTopicBySlug реализует domain.TopicRepo.
func (s *Store) GetTopicBySlug(ctx context.Context, slug string) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, topic := range s.topics {
		if topic.Slug == slug && topic.IsActive {
			return topic, nil
		}
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

// GetTopicByID реализует domain.TopicRepo.
func (s *Store) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return topic, nil
}

// ReplaceContentTopics заменяет связи под одной блокировкой, поэтому читатели
// не видят промежуточного пустого состояния.
func (s *Store) ReplaceContentTopics(ctx context.Context, contentID string, edges []domain.ContentTopicEdge) error {
	replaced := make(map[string]domain.ContentTopicEdge, len(edges))
	now := time.Now().UTC()
	for _, edge := range edges {
		edge.ContentID = contentID
		if edge.CreatedAt.IsZero() {
			edge.CreatedAt = now
		}
		replaced[edge.TopicID] = edge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(replaced) == 0 {
		delete(s.edges, contentID)
		return nil
	}
	s.edges[contentID] = replaced
	return nil
}

// ListContentTopics реализует domain.EdgeRepo.
func (s *Store) ListContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ContentTopicEdge, 0, len(s.edges[contentID]))
	for _, edge := range s.edges[contentID] {
		out = append(out, edge)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].TopicID < out[j].TopicID
	})
	return out, nil
}

// ListTopicContentIDs реализует domain.EdgeRepo.
func (s *Store) ListTopicContentIDs(ctx context.Context, topicID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for contentID, byTopic := range s.edges {
		if _, ok := byTopic[topicID]; ok {
			ids = append(ids, contentID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CountTopicContent реализует domain.EdgeRepo.
func (s *Store) CountTopicContent(ctx context.Context, topicID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, byTopic := range s.edges {
		if _, ok := byTopic[topicID]; ok {
			count++
		}
	}
	return count, nil
}

// GetCard реализует domain.CardRepo.
func (s *Store) GetCard(ctx context.Context, id string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrContentNotFound
	}
	return card, nil
}

// QueryCards реализует domain.CardRepo.
func (s *Store) QueryCards(ctx context.Context, q domain.CardQuery) ([]domain.Card, error) {
	if q.Match.Empty() {
		return nil, nil
	}
	ids := idSet(q.Match.IDs)
	types := typeSet(q.Filters.ContentTypes)

	s.mu.RLock()
	matched := make([]domain.Card, 0)
	for _, card := range s.cards {
		if !card.IsActive {
			continue
		}
		if ids != nil {
			if _, ok := ids[card.ID]; !ok {
				continue
			}
		} else if !anyCardPredicate(card, q.Match.AnyOf) {
			continue
		}
		if types != nil {
			if _, ok := types[card.ContentType]; !ok {
				continue
			}
		}
		if q.Filters.PriceMin != nil && (card.PriceMin == nil || *card.PriceMin < *q.Filters.PriceMin) {
			continue
		}
		if q.Filters.PriceMax != nil && (card.PriceMax == nil || *card.PriceMax > *q.Filters.PriceMax) {
			continue
		}
		matched = append(matched, card)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].EngagementScore != matched[j].EngagementScore {
			return matched[i].EngagementScore > matched[j].EngagementScore
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, q.Offset, q.Limit), nil
}

// GetShort реализует domain.ShortRepo.
func (s *Store) GetShort(ctx context.Context, id string) (domain.Short, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	short, ok := s.shorts[id]
	if !ok {
		return domain.Short{}, domain.ErrContentNotFound
	}
	return short, nil
}

// QueryShorts реализует domain.ShortRepo.
func (s *Store) QueryShorts(ctx context.Context, q domain.ShortQuery) ([]domain.Short, error) {
	if q.Match.Empty() {
		return nil, nil
	}
	ids := idSet(q.Match.IDs)
	types := typeSet(q.ContentTypes)

	s.mu.RLock()
	matched := make([]domain.Short, 0)
	for _, short := range s.shorts {
		if !short.IsPublished {
			continue
		}
		if ids != nil {
			if _, ok := ids[short.ID]; !ok {
				continue
			}
		} else if !anyShortPredicate(short, q.Match.AnyOf) {
			continue
		}
		if types != nil {
			if _, ok := types[short.ContentType]; !ok {
				continue
			}
		}
		matched = append(matched, short)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PerformanceScore != matched[j].PerformanceScore {
			return matched[i].PerformanceScore > matched[j].PerformanceScore
		}
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, q.Offset, q.Limit), nil
}

// RecordBusinessMetric реализует domain.BusinessMetricRepo.
func (s *Store) RecordBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	if metric.Event == "" {
		return nil
	}
	if metric.OccurredAt.IsZero() {
		metric.OccurredAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, metric)
	return nil
}

// BusinessMetrics возвращает копию сохранённых событий.
func (s *Store) BusinessMetrics() []domain.BusinessMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BusinessMetric(nil), s.metrics...)
}

func anyCardPredicate(card domain.Card, predicates []domain.Containment) bool {
	for _, p := range predicates {
		switch p.Column {
		case domain.ColumnTags:
			if containsTerm(card.Tags, p.Value) {
				return true
			}
		case domain.ColumnPropertyFeatures:
			if containsTerm(card.PropertyFeatures, p.Value) {
				return true
			}
		case domain.ColumnPartnerCategory:
			if card.PartnerCategory != nil && domain.NormalizeTerm(*card.PartnerCategory) == domain.NormalizeTerm(p.Value) {
				return true
			}
		}
	}
	return false
}

func anyShortPredicate(short domain.Short, predicates []domain.Containment) bool {
	for _, p := range predicates {
		if p.Column == domain.ColumnHighlights && containsTerm(short.Highlights, p.Value) {
			return true
		}
	}
	return false
}

func containsTerm(values []string, term string) bool {
	needle := domain.NormalizeTerm(term)
	for _, v := range values {
		if domain.NormalizeTerm(v) == needle {
			return true
		}
	}
	return false
}

func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func typeSet(types []string) map[string]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
