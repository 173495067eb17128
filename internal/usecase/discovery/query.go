package discovery

import (
	"context"
	"fmt"

	"estate-discovery/internal/domain"
)

// topicMatches строит условия отбора карточек и shorts для темы.
// Явные связи имеют приоритет: если они есть, словарь темы не используется.
func (s *Service) topicMatches(ctx context.Context, topic domain.Topic) (cards, shorts domain.ContentMatch, err error) {
	ids, err := s.edges.ListTopicContentIDs(ctx, topic.ID)
	if err != nil {
		return domain.ContentMatch{}, domain.ContentMatch{}, fmt.Errorf("list topic content: %w", err)
	}
	if len(ids) > 0 {
		explicit := domain.ContentMatch{IDs: ids}
		return explicit, explicit, nil
	}
	return fallbackCardMatch(topic), fallbackShortMatch(topic), nil
}

func fallbackCardMatch(topic domain.Topic) domain.ContentMatch {
	var anyOf []domain.Containment
	anyOf = appendContainments(anyOf, domain.ColumnTags, topic.ContentTags)
	anyOf = appendContainments(anyOf, domain.ColumnPropertyFeatures, topic.PropertyFeatures)
	anyOf = appendContainments(anyOf, domain.ColumnPartnerCategory, topic.PartnerCategories)
	return domain.ContentMatch{AnyOf: anyOf}
}

// У shorts нет особенностей и категорий, словарь тегов сравнивается с highlights.
func fallbackShortMatch(topic domain.Topic) domain.ContentMatch {
	return domain.ContentMatch{AnyOf: appendContainments(nil, domain.ColumnHighlights, topic.ContentTags)}
}

func appendContainments(dst []domain.Containment, column domain.ArrayColumn, values []string) []domain.Containment {
	for _, v := range domain.NormalizeTerms(values) {
		dst = append(dst, domain.Containment{Column: column, Value: v})
	}
	return dst
}

// QueryCards возвращает страницу карточек темы.
func (s *Service) QueryCards(ctx context.Context, topicID string, page domain.Pagination, filters domain.FeedFilters) ([]domain.Card, error) {
	page = s.normalizePage(page)
	if err := validatePage(page); err != nil {
		return nil, err
	}
	topic, err := s.activeTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	match, _, err := s.topicMatches(ctx, topic)
	if err != nil {
		return nil, err
	}
	return s.queryCards(ctx, match, page, filters)
}

// QueryShorts возвращает страницу shorts темы.
func (s *Service) QueryShorts(ctx context.Context, topicID string, page domain.Pagination, filters domain.FeedFilters) ([]domain.Short, error) {
	page = s.normalizePage(page)
	if err := validatePage(page); err != nil {
		return nil, err
	}
	topic, err := s.activeTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	_, match, err := s.topicMatches(ctx, topic)
	if err != nil {
		return nil, err
	}
	return s.queryShorts(ctx, match, page, filters)
}

func (s *Service) queryCards(ctx context.Context, match domain.ContentMatch, page domain.Pagination, filters domain.FeedFilters) ([]domain.Card, error) {
	if match.Empty() {
		return []domain.Card{}, nil
	}
	cards, err := s.cards.QueryCards(ctx, domain.CardQuery{
		Match:   match,
		Filters: filters,
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

func (s *Service) queryShorts(ctx context.Context, match domain.ContentMatch, page domain.Pagination, filters domain.FeedFilters) ([]domain.Short, error) {
	if match.Empty() {
		return []domain.Short{}, nil
	}
	shorts, err := s.shorts.QueryShorts(ctx, domain.ShortQuery{
		Match:        match,
		ContentTypes: filters.ContentTypes,
		Limit:        page.Limit,
		Offset:       page.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("query shorts: %w", err)
	}
	if shorts == nil {
		shorts = []domain.Short{}
	}
	return shorts, nil
}
