package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// Сообщения ленты.
const (
	MessageTopicNotFound = "Topic not found"
	MessageComingSoon    = "Coming Soon"
)

// FeedResult — результат FeedWithFallback.
type FeedResult struct {
	Topic      *domain.Topic
	Sufficient bool
	Content    []domain.Card
	Shorts     []domain.Short
	Related    []domain.Topic
	Message    string
}

// FeedRequest — параметры ленты темы.
type FeedRequest struct {
	Slug          string   `validate:"required,max=128"`
	Page          int      `validate:"min=0"`
	Limit         int      `validate:"min=0"`
	ContentTypes  []string `validate:"max=20,dive,required,max=64"`
	PriceMin      *int64   `validate:"omitempty,min=0"`
	PriceMax      *int64   `validate:"omitempty,min=0"`
	IncludeShorts bool
}

// PageInfo — метаданные пагинации.
type PageInfo struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// FeedPage — собранная лента темы.
// При ComingSoon контент пуст, а RelatedTopics и Suggestion заполнены.
type FeedPage struct {
	Topic         domain.Topic
	ComingSoon    bool
	Content       []domain.Card
	Shorts        []domain.Short
	Message       string
	Suggestion    string
	RelatedTopics []domain.Topic
	Pagination    PageInfo
}

// FeedWithFallback собирает ленту темы по ID. Неизвестная тема не является ошибкой:
// результат содержит сообщение "Topic not found".
func (s *Service) FeedWithFallback(ctx context.Context, topicID string, page domain.Pagination, filters domain.FeedFilters) (FeedResult, error) {
	page = s.normalizePage(page)
	if err := validatePage(page); err != nil {
		return FeedResult{}, err
	}
	topic, err := s.activeTopicByID(ctx, topicID)
	if errors.Is(err, domain.ErrNotFound) {
		return FeedResult{
			Content: []domain.Card{},
			Shorts:  []domain.Short{},
			Related: []domain.Topic{},
			Message: MessageTopicNotFound,
		}, nil
	}
	if err != nil {
		return FeedResult{}, err
	}

	count, err := s.ContentCount(ctx, topic.ID)
	if err != nil {
		return FeedResult{}, err
	}
	if !s.sufficient(count) {
		related, err := s.RelatedTopics(ctx, topic, s.cfg.RelatedLimit)
		if err != nil {
			return FeedResult{}, err
		}
		s.recordComingSoon(ctx, topic, count)
		return FeedResult{
			Topic:   &topic,
			Content: []domain.Card{},
			Shorts:  []domain.Short{},
			Related: topicsOf(related),
			Message: MessageComingSoon,
		}, nil
	}

	cards, shorts, err := s.loadContent(ctx, topic, page, page, filters, true)
	if err != nil {
		return FeedResult{}, err
	}
	return FeedResult{
		Topic:      &topic,
		Sufficient: true,
		Content:    cards,
		Shorts:     shorts,
		Related:    []domain.Topic{},
	}, nil
}

// TopicFeed — внешняя операция ленты по slug. Достаточность определяется по
// общему числу явных связей и не зависит от фильтров запроса.
func (s *Service) TopicFeed(ctx context.Context, req FeedRequest) (page FeedPage, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.FeedOutcomeServed
		switch {
		case errors.Is(err, domain.ErrNotFound):
			outcome = metrics.FeedOutcomeNotFound
		case err != nil:
			outcome = metrics.FeedOutcomeError
		case page.ComingSoon:
			outcome = metrics.FeedOutcomeComingSoon
		}
		metrics.ObserveFeed(outcome, start)
	}()

	if err := s.validateFeedRequest(req); err != nil {
		return FeedPage{}, err
	}
	pagination := s.normalizePage(domain.Pagination{Page: req.Page, Limit: req.Limit})
	filters := domain.FeedFilters{ContentTypes: req.ContentTypes, PriceMin: req.PriceMin, PriceMax: req.PriceMax}

	topic, err := s.topicBySlug(ctx, req.Slug)
	if err != nil {
		return FeedPage{}, err
	}
	count, err := s.ContentCount(ctx, topic.ID)
	if err != nil {
		return FeedPage{}, err
	}

	if !s.sufficient(count) {
		related, err := s.RelatedTopics(ctx, topic, s.cfg.RelatedLimit)
		if err != nil {
			return FeedPage{}, err
		}
		s.recordComingSoon(ctx, topic, count)
		return FeedPage{
			Topic:         topic,
			ComingSoon:    true,
			Content:       []domain.Card{},
			Shorts:        []domain.Short{},
			Message:       MessageComingSoon,
			Suggestion:    comingSoonSuggestion(topic),
			RelatedTopics: topicsOf(related),
			Pagination:    PageInfo{Page: pagination.Page, Limit: pagination.Limit},
		}, nil
	}

	shortsPage := domain.Pagination{Page: pagination.Page, Limit: ShortsLimit(pagination.Limit)}
	cards, shorts, err := s.loadContent(ctx, topic, pagination, shortsPage, filters, req.IncludeShorts)
	if err != nil {
		return FeedPage{}, err
	}
	return FeedPage{
		Topic:   topic,
		Content: cards,
		Shorts:  shorts,
		Pagination: PageInfo{
			Page:    pagination.Page,
			Limit:   pagination.Limit,
			Total:   count,
			HasMore: len(cards) == pagination.Limit,
		},
	}, nil
}

// loadContent выполняет запросы карточек и shorts параллельно и дожидается обоих.
func (s *Service) loadContent(ctx context.Context, topic domain.Topic, cardsPage, shortsPage domain.Pagination, filters domain.FeedFilters, withShorts bool) ([]domain.Card, []domain.Short, error) {
	cardMatch, shortMatch, err := s.topicMatches(ctx, topic)
	if err != nil {
		return nil, nil, err
	}

	var (
		cards  []domain.Card
		shorts = []domain.Short{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.queryCards(gctx, cardMatch, cardsPage, filters)
		return err
	})
	if withShorts {
		g.Go(func() error {
			var err error
			shorts, err = s.queryShorts(gctx, shortMatch, shortsPage, filters)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load topic %s content: %w", topic.Slug, err)
	}
	return cards, shorts, nil
}

// ShortsLimit возвращает размер страницы shorts: четверть страницы карточек с округлением вверх.
func ShortsLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return (limit + 3) / 4
}

func (s *Service) normalizePage(p domain.Pagination) domain.Pagination {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = s.cfg.DefaultPageLimit
	}
	if p.Limit > s.cfg.MaxPageLimit {
		p.Limit = s.cfg.MaxPageLimit
	}
	return p
}

func comingSoonSuggestion(topic domain.Topic) string {
	return fmt.Sprintf("We're still gathering content for %s. Explore a related topic in the meantime.", topic.Name)
}
