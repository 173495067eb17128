package http

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
)

const maxAdminBody = 1 << 20

// Tagging — операции тегирования контента.
type Tagging interface {
	SuggestTopics(ctx context.Context, attrs domain.ContentAttributes) ([]domain.ScoredTopic, error)
	HandleJob(ctx context.Context, job domain.TagJob) ([]domain.ContentTopicEdge, error)
	ContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error)
}

// AdminHandler обслуживает маршруты /admin.
// Без очереди перетегирование выполняется синхронно.
type AdminHandler struct {
	svc   Tagging
	queue domain.TagQueue
	token string
	log   zerolog.Logger
}

// NewAdminHandler создаёт обработчик админки. queue может быть nil.
func NewAdminHandler(svc Tagging, queue domain.TagQueue, token string, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, queue: queue, token: token, log: logger}
}

// Register монтирует маршруты на роутер.
func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(h.token))
		r.Post("/suggest", h.suggest)
		r.Put("/content/{id}/topics", h.replaceTopics)
		r.Get("/content/{id}/topics", h.contentTopics)
	})
}

type replaceTopicsRequest struct {
	TopicIDs   []string                  `json:"topicIds"`
	Kind       domain.ContentKind        `json:"kind,omitempty"`
	Attributes *domain.ContentAttributes `json:"attributes,omitempty"`
}

type jobAcceptedResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func (h *AdminHandler) suggest(w http.ResponseWriter, r *http.Request) {
	var attrs domain.ContentAttributes
	if !h.decode(w, r, &attrs) {
		return
	}
	suggestions, err := h.svc.SuggestTopics(r.Context(), attrs)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(suggestions))
}

func (h *AdminHandler) replaceTopics(w http.ResponseWriter, r *http.Request) {
	var req replaceTopicsRequest
	if !h.decode(w, r, &req) {
		return
	}
	job := domain.TagJob{
		ID:          uuid.NewString(),
		ContentID:   chi.URLParam(r, "id"),
		Kind:        req.Kind,
		TopicIDs:    req.TopicIDs,
		Attributes:  req.Attributes,
		RequestedAt: time.Now().UTC(),
		Cause:       domain.TagCauseAdmin,
	}

	if h.queue != nil {
		if err := h.queue.Enqueue(r.Context(), job); err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		h.log.Info().Str("job_id", job.ID).Str("content_id", job.ContentID).Msg("admin: задача тегирования поставлена")
		writeJSON(w, http.StatusAccepted, jobAcceptedResponse{JobID: job.ID, Status: "queued"})
		return
	}

	edges, err := h.svc.HandleJob(r.Context(), job)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(edges))
}

func (h *AdminHandler) contentTopics(w http.ResponseWriter, r *http.Request) {
	edges, err := h.svc.ContentTopics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(edges))
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return false
	}
	return true
}
