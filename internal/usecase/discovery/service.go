// Package discovery отвечает за выдачу контента по темам: реестр тем,
// достаточность контента, похожие темы и сборку ленты.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"estate-discovery/internal/adapters/scorer"
	"estate-discovery/internal/domain"
)

// Config — пороги и лимиты выдачи.
type Config struct {
	MinTopicContent  int
	RelatedLimit     int
	DefaultPageLimit int
	MaxPageLimit     int
	OverlapWeights   scorer.Weights
}

// DefaultConfig возвращает значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		MinTopicContent:  20,
		RelatedLimit:     3,
		DefaultPageLimit: 20,
		MaxPageLimit:     100,
		OverlapWeights:   scorer.DefaultOverlapWeights,
	}
}

// Service реализует чтение тем и лент.
type Service struct {
	topics   domain.TopicRepo
	edges    domain.EdgeRepo
	cards    domain.CardRepo
	shorts   domain.ShortRepo
	business domain.BusinessMetricRepo
	overlap  *scorer.Overlap
	validate *validator.Validate
	cfg      Config
	log      zerolog.Logger
}

// NewService создаёт сервис. business может быть nil.
func NewService(topics domain.TopicRepo, edges domain.EdgeRepo, cards domain.CardRepo, shorts domain.ShortRepo, business domain.BusinessMetricRepo, cfg Config, logger zerolog.Logger) *Service {
	def := DefaultConfig()
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = def.RelatedLimit
	}
	if cfg.DefaultPageLimit <= 0 {
		cfg.DefaultPageLimit = def.DefaultPageLimit
	}
	if cfg.MaxPageLimit < cfg.DefaultPageLimit {
		cfg.MaxPageLimit = max(def.MaxPageLimit, cfg.DefaultPageLimit)
	}
	if cfg.OverlapWeights == (scorer.Weights{}) {
		cfg.OverlapWeights = def.OverlapWeights
	}
	return &Service{
		topics:   topics,
		edges:    edges,
		cards:    cards,
		shorts:   shorts,
		business: business,
		overlap:  scorer.NewOverlap(cfg.OverlapWeights),
		validate: validator.New(),
		cfg:      cfg,
		log:      logger,
	}
}

// Config возвращает действующие настройки.
func (s *Service) Config() Config {
	return s.cfg
}

// TopicDetails — тема с признаком достаточности.
type TopicDetails struct {
	Topic                domain.Topic
	HasSufficientContent bool
	// RelatedTopics заполняется только для тем без достаточного контента.
	RelatedTopics []domain.Topic
}

// ContentCountResult — ответ о количестве явно привязанного контента.
type ContentCountResult struct {
	TopicID              string
	Count                int
	HasSufficientContent bool
	MinimumRequired      int
}

// ListActiveTopics возвращает активные темы в порядке отображения.
func (s *Service) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	topics, err := s.topics.ListActiveTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// GetTopic возвращает тему по slug вместе с признаком достаточности.
func (s *Service) GetTopic(ctx context.Context, slug string) (TopicDetails, error) {
	topic, err := s.topicBySlug(ctx, slug)
	if err != nil {
		return TopicDetails{}, err
	}
	count, err := s.ContentCount(ctx, topic.ID)
	if err != nil {
		return TopicDetails{}, err
	}
	details := TopicDetails{Topic: topic, HasSufficientContent: s.sufficient(count)}
	if !details.HasSufficientContent {
		related, err := s.RelatedTopics(ctx, topic, s.cfg.RelatedLimit)
		if err != nil {
			return TopicDetails{}, err
		}
		details.RelatedTopics = topicsOf(related)
	}
	return details, nil
}

// ContentCount считает только явные связи темы; совпадения по словарю не учитываются.
func (s *Service) ContentCount(ctx context.Context, topicID string) (int, error) {
	count, err := s.edges.CountTopicContent(ctx, topicID)
	if err != nil {
		return 0, fmt.Errorf("count topic content: %w", err)
	}
	return count, nil
}

// IsSufficient сообщает, набрала ли тема минимум явных связей.
func (s *Service) IsSufficient(ctx context.Context, topicID string) (bool, error) {
	count, err := s.ContentCount(ctx, topicID)
	if err != nil {
		return false, err
	}
	return s.sufficient(count), nil
}

// ContentCountBySlug возвращает счётчик для темы по slug.
func (s *Service) ContentCountBySlug(ctx context.Context, slug string) (ContentCountResult, error) {
	topic, err := s.topicBySlug(ctx, slug)
	if err != nil {
		return ContentCountResult{}, err
	}
	count, err := s.ContentCount(ctx, topic.ID)
	if err != nil {
		return ContentCountResult{}, err
	}
	return ContentCountResult{
		TopicID:              topic.ID,
		Count:                count,
		HasSufficientContent: s.sufficient(count),
		MinimumRequired:      s.cfg.MinTopicContent,
	}, nil
}

func (s *Service) sufficient(count int) bool {
	return count >= s.cfg.MinTopicContent
}

func (s *Service) topicBySlug(ctx context.Context, slug string) (domain.Topic, error) {
	if err := s.validate.Var(slug, "required,max=128"); err != nil {
		return domain.Topic{}, domain.NewValidationError("slug", "must be a non-empty string up to 128 characters")
	}
	topic, err := s.topics.GetTopicBySlug(ctx, slug)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic %q: %w", slug, err)
	}
	return topic, nil
}

// activeTopicByID отвечает ErrTopicNotFound и для неактивных тем.
func (s *Service) activeTopicByID(ctx context.Context, topicID string) (domain.Topic, error) {
	topic, err := s.topics.GetTopicByID(ctx, topicID)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic %q: %w", topicID, err)
	}
	if !topic.IsActive {
		return domain.Topic{}, fmt.Errorf("get topic %q: %w", topicID, domain.ErrTopicNotFound)
	}
	return topic, nil
}

func (s *Service) recordComingSoon(ctx context.Context, topic domain.Topic, count int) {
	if s.business == nil {
		return
	}
	topicID := topic.ID
	err := s.business.RecordBusinessMetric(ctx, domain.BusinessMetric{
		Event:    domain.BusinessMetricEventTopicComingSoon,
		TopicID:  &topicID,
		Metadata: map[string]any{"slug": topic.Slug, "count": count, "minimum": s.cfg.MinTopicContent},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("topic_id", topic.ID).Msg("discovery: record coming soon metric failed")
	}
}

func topicsOf(scored []domain.ScoredTopic) []domain.Topic {
	out := make([]domain.Topic, 0, len(scored))
	for _, item := range scored {
		out = append(out, item.Topic)
	}
	return out
}
