package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/usecase/discovery"
)

// Discovery — операции чтения тем и лент.
type Discovery interface {
	ListActiveTopics(ctx context.Context) ([]domain.Topic, error)
	GetTopic(ctx context.Context, slug string) (discovery.TopicDetails, error)
	TopicFeed(ctx context.Context, req discovery.FeedRequest) (discovery.FeedPage, error)
	ContentCountBySlug(ctx context.Context, slug string) (discovery.ContentCountResult, error)
	RelatedBySlug(ctx context.Context, slug string, limit int) ([]domain.Topic, error)
}

// TopicHandler обслуживает публичные маршруты /topics.
type TopicHandler struct {
	svc Discovery
	log zerolog.Logger
}

// NewTopicHandler создаёт обработчик тем.
func NewTopicHandler(svc Discovery, logger zerolog.Logger) *TopicHandler {
	return &TopicHandler{svc: svc, log: logger}
}

// Register монтирует маршруты на роутер.
func (h *TopicHandler) Register(r chi.Router) {
	r.Route("/topics", func(r chi.Router) {
		r.Get("/", h.listTopics)
		r.Get("/{slug}", h.getTopic)
		r.Get("/{slug}/feed", h.feed)
		r.Get("/{slug}/content-count", h.contentCount)
		r.Get("/{slug}/related", h.related)
	})
}

type topicDetailsResponse struct {
	Topic                domain.Topic   `json:"topic"`
	HasSufficientContent bool           `json:"hasSufficientContent"`
	RelatedTopics        []domain.Topic `json:"relatedTopics"`
}

type feedResponse struct {
	Content    []domain.Card      `json:"content"`
	Shorts     []domain.Short     `json:"shorts"`
	Pagination discovery.PageInfo `json:"pagination"`
}

// comingSoonResponse отдаётся для темы без достаточного контента.
type comingSoonResponse struct {
	Content       []domain.Card      `json:"content"`
	Shorts        []domain.Short     `json:"shorts"`
	Message       string             `json:"message"`
	Suggestion    string             `json:"suggestion"`
	RelatedTopics []domain.Topic     `json:"relatedTopics"`
	Pagination    discovery.PageInfo `json:"pagination"`
}

type contentCountResponse struct {
	TopicID              string `json:"topicId"`
	Count                int    `json:"count"`
	HasSufficientContent bool   `json:"hasSufficientContent"`
	MinimumRequired      int    `json:"minimumRequired"`
}

func (h *TopicHandler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.ListActiveTopics(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(topics))
}

func (h *TopicHandler) getTopic(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.GetTopic(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, topicDetailsResponse{
		Topic:                details.Topic,
		HasSufficientContent: details.HasSufficientContent,
		RelatedTopics:        orEmpty(details.RelatedTopics),
	})
}

func (h *TopicHandler) feed(w http.ResponseWriter, r *http.Request) {
	req, err := parseFeedRequest(r)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	page, err := h.svc.TopicFeed(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if page.ComingSoon {
		writeJSON(w, http.StatusOK, comingSoonResponse{
			Content:       []domain.Card{},
			Shorts:        []domain.Short{},
			Message:       page.Message,
			Suggestion:    page.Suggestion,
			RelatedTopics: orEmpty(page.RelatedTopics),
			Pagination:    page.Pagination,
		})
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{
		Content:    orEmpty(page.Content),
		Shorts:     orEmpty(page.Shorts),
		Pagination: page.Pagination,
	})
}

func (h *TopicHandler) contentCount(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ContentCountBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, contentCountResponse{
		TopicID:              res.TopicID,
		Count:                res.Count,
		HasSufficientContent: res.HasSufficientContent,
		MinimumRequired:      res.MinimumRequired,
	})
}

func (h *TopicHandler) related(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	topics, err := h.svc.RelatedBySlug(r.Context(), chi.URLParam(r, "slug"), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(topics))
}

// parseFeedRequest разбирает query параметры ленты. Диапазоны проверяет сервис.
func parseFeedRequest(r *http.Request) (discovery.FeedRequest, error) {
	req := discovery.FeedRequest{Slug: chi.URLParam(r, "slug"), IncludeShorts: true}
	var err error
	if req.Page, err = intParam(r, "page"); err != nil {
		return req, err
	}
	if req.Limit, err = intParam(r, "limit"); err != nil {
		return req, err
	}
	if req.PriceMin, err = int64Param(r, "priceMin"); err != nil {
		return req, err
	}
	if req.PriceMax, err = int64Param(r, "priceMax"); err != nil {
		return req, err
	}
	if raw := r.URL.Query().Get("includeShorts"); raw != "" {
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			return req, domain.NewValidationError("includeShorts", "must be a boolean")
		}
		req.IncludeShorts = v
	}
	req.ContentTypes = listParam(r, "contentTypes")
	return req, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func int64Param(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &v, nil
}

// listParam принимает как повторяющиеся параметры, так и значения через запятую.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
