// Package tagging записывает связи контента с темами и подсказывает темы для нового контента.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"estate-discovery/internal/adapters/scorer"
	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// DefaultSuggestMinScore — минимальная оценка темы для автоподсказки.
const DefaultSuggestMinScore = 3.0

// Service реализует тегирование контента.
type Service struct {
	topics     domain.TopicRepo
	edges      domain.EdgeRepo
	cards      domain.CardRepo
	shorts     domain.ShortRepo
	business   domain.BusinessMetricRepo
	relevance  *scorer.Relevance
	minSuggest float64
	log        zerolog.Logger
}

// NewService создаёт сервис тегирования. business может быть nil.
func NewService(topics domain.TopicRepo, edges domain.EdgeRepo, cards domain.CardRepo, shorts domain.ShortRepo, business domain.BusinessMetricRepo, minSuggest float64, logger zerolog.Logger) *Service {
	if minSuggest <= 0 {
		minSuggest = DefaultSuggestMinScore
	}
	return &Service{
		topics:     topics,
		edges:      edges,
		cards:      cards,
		shorts:     shorts,
		business:   business,
		relevance:  scorer.NewRelevance(scorer.DefaultRelevanceWeights),
		minSuggest: minSuggest,
		log:        logger,
	}
}

// TagContent заменяет все связи контента связями с переданными темами.
// Каждая связь оценивается по текущему словарю темы. Неизвестные темы пропускаются.
func (s *Service) TagContent(ctx context.Context, contentID string, topicIDs []string, attrs domain.ContentAttributes) ([]domain.ContentTopicEdge, error) {
	if contentID == "" {
		return nil, domain.NewValidationError("contentId", "is required")
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(topicIDs))
	edges := make([]domain.ContentTopicEdge, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		if _, ok := seen[topicID]; ok || topicID == "" {
			continue
		}
		seen[topicID] = struct{}{}

		topic, err := s.topics.GetTopicByID(ctx, topicID)
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Str("content_id", contentID).Str("topic_id", topicID).Msg("tagging: unknown topic skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve topic %s: %w", topicID, err)
		}
		edges = append(edges, domain.ContentTopicEdge{
			ContentID:      contentID,
			TopicID:        topic.ID,
			RelevanceScore: s.relevance.Score(topic, attrs),
			CreatedAt:      now,
		})
	}

	if err := s.edges.ReplaceContentTopics(ctx, contentID, edges); err != nil {
		return nil, fmt.Errorf("replace content topics: %w", err)
	}
	metrics.AddEdgesWritten(len(edges))
	s.recordTagged(ctx, contentID, edges)
	s.log.Info().Str("content_id", contentID).Int("edges", len(edges)).Msg("tagging: content tagged")
	return edges, nil
}

// SuggestTopics оценивает контент против всех активных тем и возвращает
// темы с оценкой не ниже порога, лучшие первыми.
func (s *Service) SuggestTopics(ctx context.Context, attrs domain.ContentAttributes) ([]domain.ScoredTopic, error) {
	topics, err := s.topics.ListActiveTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	suggestions := make([]domain.ScoredTopic, 0)
	for _, topic := range topics {
		score := s.relevance.Score(topic, attrs)
		if score >= s.minSuggest {
			suggestions = append(suggestions, domain.ScoredTopic{Topic: topic, Score: score})
		}
	}
	scorer.SortScored(suggestions)
	return suggestions, nil
}

// ContentTopics возвращает текущие связи контента.
func (s *Service) ContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error) {
	if contentID == "" {
		return nil, domain.NewValidationError("contentId", "is required")
	}
	edges, err := s.edges.ListContentTopics(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("list content topics: %w", err)
	}
	if edges == nil {
		edges = []domain.ContentTopicEdge{}
	}
	return edges, nil
}

// TagCard тегирует карточку по атрибутам из хранилища.
func (s *Service) TagCard(ctx context.Context, cardID string, topicIDs []string) ([]domain.ContentTopicEdge, error) {
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", cardID, err)
	}
	return s.TagContent(ctx, card.ID, topicIDs, card.Attributes())
}

// TagShort тегирует short по атрибутам из хранилища.
func (s *Service) TagShort(ctx context.Context, shortID string, topicIDs []string) ([]domain.ContentTopicEdge, error) {
	short, err := s.shorts.GetShort(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("get short %s: %w", shortID, err)
	}
	return s.TagContent(ctx, short.ID, topicIDs, short.Attributes())
}

// HandleJob выполняет задачу из очереди. Без атрибутов в задаче они
// загружаются из хранилища по Kind; при пустом Kind сначала ищется карточка.
func (s *Service) HandleJob(ctx context.Context, job domain.TagJob) ([]domain.ContentTopicEdge, error) {
	if job.Attributes != nil {
		return s.TagContent(ctx, job.ContentID, job.TopicIDs, *job.Attributes)
	}
	switch job.Kind {
	case domain.ContentKindCard:
		return s.TagCard(ctx, job.ContentID, job.TopicIDs)
	case domain.ContentKindShort:
		return s.TagShort(ctx, job.ContentID, job.TopicIDs)
	case "":
		edges, err := s.TagCard(ctx, job.ContentID, job.TopicIDs)
		if errors.Is(err, domain.ErrContentNotFound) {
			return s.TagShort(ctx, job.ContentID, job.TopicIDs)
		}
		return edges, err
	default:
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown content kind %q", job.Kind))
	}
}

func (s *Service) recordTagged(ctx context.Context, contentID string, edges []domain.ContentTopicEdge) {
	if s.business == nil {
		return
	}
	topicIDs := make([]string, 0, len(edges))
	for _, e := range edges {
		topicIDs = append(topicIDs, e.TopicID)
	}
	id := contentID
	err := s.business.RecordBusinessMetric(ctx, domain.BusinessMetric{
		Event:     domain.BusinessMetricEventContentTagged,
		ContentID: &id,
		Metadata:  map[string]any{"topic_ids": topicIDs},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("content_id", contentID).Msg("tagging: record metric failed")
	}
}
