package discovery

import (
	"context"
	"fmt"

	"estate-discovery/internal/domain"
)

// RelatedTopics оценивает пересечение словаря темы с остальными активными темами.
// Сама тема и темы без пересечения в результат не попадают.
func (s *Service) RelatedTopics(ctx context.Context, topic domain.Topic, limit int) ([]domain.ScoredTopic, error) {
	if limit <= 0 {
		limit = s.cfg.RelatedLimit
	}
	candidates, err := s.topics.ListActiveTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return s.overlap.Related(topic, candidates, limit), nil
}

// RelatedBySlug возвращает похожие темы для slug.
func (s *Service) RelatedBySlug(ctx context.Context, slug string, limit int) ([]domain.Topic, error) {
	if limit != 0 {
		if err := s.validate.Var(limit, "min=1,max=20"); err != nil {
			return nil, domain.NewValidationError("limit", "must be between 1 and 20")
		}
	}
	topic, err := s.topicBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	related, err := s.RelatedTopics(ctx, topic, limit)
	if err != nil {
		return nil, err
	}
	return topicsOf(related), nil
}
