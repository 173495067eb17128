package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"estate-discovery/internal/adapters/memstore"
	"estate-discovery/internal/domain"
	"estate-discovery/internal/usecase/discovery"
	"estate-discovery/internal/usecase/tagging"
)

type stubQueue struct {
	mu   sync.Mutex
	jobs []domain.TagJob
}

func (q *stubQueue) Enqueue(ctx context.Context, job domain.TagJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Pop(ctx context.Context) (domain.TagJob, error) {
	<-ctx.Done()
	return domain.TagJob{}, ctx.Err()
}

type failingDiscovery struct{ Discovery }

func (failingDiscovery) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	return nil, fmt.Errorf("list topics: %w", domain.ErrStoreUnavailable)
}

func newTestStore() *memstore.Store {
	store := memstore.New()
	store.PutTopic(domain.Topic{ID: "pets", Slug: "pet-friendly", Name: "Pet Friendly", DisplayOrder: 1, IsActive: true,
		ContentTags: []string{"pets"}})
	store.PutTopic(domain.Topic{ID: "family", Slug: "family", Name: "Family", DisplayOrder: 2, IsActive: true,
		ContentTags: []string{"pets", "schools"}})
	store.PutTopic(domain.Topic{ID: "nightlife", Slug: "nightlife", Name: "Nightlife", DisplayOrder: 3, IsActive: true,
		ContentTags: []string{"bars"}})
	return store
}

func tagStoreCards(t *testing.T, store *memstore.Store, topicID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("card-%02d", i)
		kind := "article"
		if i%2 == 0 {
			kind = "video"
		}
		store.PutCard(domain.Card{ID: id, ContentType: kind, EngagementScore: float64(n - i), IsActive: true,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
		if err := store.ReplaceContentTopics(context.Background(), id, []domain.ContentTopicEdge{{TopicID: topicID, RelevanceScore: 5}}); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}
}

func newTestRouter(store *memstore.Store, queue domain.TagQueue, token string) http.Handler {
	logger := zerolog.Nop()
	srv := NewServer(logger)
	disc := discovery.NewService(store, store, store, store, store, discovery.DefaultConfig(), logger)
	tag := tagging.NewService(store, store, store, store, store, tagging.DefaultSuggestMinScore, logger)
	NewTopicHandler(disc, logger).Register(srv.Router)
	NewAdminHandler(tag, queue, token, logger).Register(srv.Router)
	return srv.Router
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("не удалось разобрать ответ %q: %v", w.Body.String(), err)
	}
}

func TestListTopics(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	w := do(t, h, http.MethodGet, "/topics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", w.Code)
	}
	var topics []domain.Topic
	decodeBody(t, w, &topics)
	if len(topics) != 3 || topics[0].Slug != "pet-friendly" {
		t.Fatalf("неожиданный список тем: %+v", topics)
	}
}

func TestGetTopicNotFound(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	w := do(t, h, http.MethodGet, "/topics/unknown", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", w.Code)
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if resp.Code != "topic_not_found" {
		t.Fatalf("неожиданный код ошибки: %q", resp.Code)
	}
}

func TestFeedComingSoon(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	w := do(t, h, http.MethodGet, "/topics/pet-friendly/feed", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"content":[]`) || !strings.Contains(body, `"shorts":[]`) {
		t.Fatalf("ожидали пустые массивы контента: %s", body)
	}
	var resp comingSoonResponse
	decodeBody(t, w, &resp)
	if resp.Message != discovery.MessageComingSoon {
		t.Fatalf("ожидали Coming Soon, получили %q", resp.Message)
	}
	if resp.Suggestion == "" {
		t.Fatalf("ожидали подсказку")
	}
	if len(resp.RelatedTopics) != 1 || resp.RelatedTopics[0].ID != "family" {
		t.Fatalf("ожидали family в похожих темах: %+v", resp.RelatedTopics)
	}
}

func TestFeedSufficient(t *testing.T) {
	store := newTestStore()
	tagStoreCards(t, store, "pets", 25)
	h := newTestRouter(store, nil, "")

	w := do(t, h, http.MethodGet, "/topics/pet-friendly/feed?limit=10&page=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), `"message"`) {
		t.Fatalf("в полной ленте не должно быть message: %s", w.Body.String())
	}
	var resp feedResponse
	decodeBody(t, w, &resp)
	if len(resp.Content) != 10 {
		t.Fatalf("ожидали 10 карточек, получили %d", len(resp.Content))
	}
	if resp.Pagination.Total != 25 || !resp.Pagination.HasMore || resp.Pagination.Limit != 10 {
		t.Fatalf("неожиданная пагинация: %+v", resp.Pagination)
	}
	if resp.Shorts == nil {
		t.Fatalf("shorts должен быть массивом")
	}
}

func TestFeedContentTypesCommaSeparated(t *testing.T) {
	store := newTestStore()
	tagStoreCards(t, store, "pets", 25)
	h := newTestRouter(store, nil, "")

	w := do(t, h, http.MethodGet, "/topics/pet-friendly/feed?limit=50&contentTypes=video,%20podcast", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", w.Code, w.Body.String())
	}
	var resp feedResponse
	decodeBody(t, w, &resp)
	if len(resp.Content) != 13 {
		t.Fatalf("ожидали 13 видео, получили %d", len(resp.Content))
	}
	for _, c := range resp.Content {
		if c.ContentType != "video" {
			t.Fatalf("фильтр по типу не применился: %+v", c)
		}
	}
	if resp.Pagination.HasMore {
		t.Fatalf("неполная страница не может иметь hasMore")
	}
}

func TestFeedRejectsMalformedParams(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	for _, target := range []string{
		"/topics/pet-friendly/feed?limit=abc",
		"/topics/pet-friendly/feed?page=-1",
		"/topics/pet-friendly/feed?limit=1000",
		"/topics/pet-friendly/feed?priceMin=500&priceMax=100",
		"/topics/pet-friendly/feed?includeShorts=maybe",
		"/topics/pet-friendly/feed?page=9223372036854775807&limit=8",
	} {
		w := do(t, h, http.MethodGet, target, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: ожидали 400, получили %d", target, w.Code)
		}
	}
}

func TestContentCount(t *testing.T) {
	store := newTestStore()
	tagStoreCards(t, store, "pets", 21)
	h := newTestRouter(store, nil, "")

	w := do(t, h, http.MethodGet, "/topics/pet-friendly/content-count", "", nil)
	var resp contentCountResponse
	decodeBody(t, w, &resp)
	if resp.TopicID != "pets" || resp.Count != 21 || !resp.HasSufficientContent || resp.MinimumRequired != 20 {
		t.Fatalf("неожиданный ответ: %+v", resp)
	}
}

func TestRelatedRejectsBadLimit(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	if w := do(t, h, http.MethodGet, "/topics/pet-friendly/related?limit=50", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", w.Code)
	}
	w := do(t, h, http.MethodGet, "/topics/pet-friendly/related?limit=2", "", nil)
	var topics []domain.Topic
	decodeBody(t, w, &topics)
	if len(topics) != 1 || topics[0].ID != "family" {
		t.Fatalf("неожиданные похожие темы: %+v", topics)
	}
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	NewTopicHandler(failingDiscovery{}, zerolog.Nop()).Register(srv.Router)
	w := do(t, srv.Router, http.MethodGet, "/topics", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ожидали 503, получили %d", w.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "secret")
	if w := do(t, h, http.MethodGet, "/admin/content/card-1/topics", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("без токена ожидали 401, получили %d", w.Code)
	}
	bad := map[string]string{"Authorization": "Bearer wrong"}
	if w := do(t, h, http.MethodGet, "/admin/content/card-1/topics", "", bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("с неверным токеном ожидали 401, получили %d", w.Code)
	}
	good := map[string]string{"Authorization": "Bearer secret"}
	if w := do(t, h, http.MethodGet, "/admin/content/card-1/topics", "", good); w.Code != http.StatusOK {
		t.Fatalf("с верным токеном ожидали 200, получили %d", w.Code)
	}
}

func TestAdminReplaceTopicsSync(t *testing.T) {
	store := newTestStore()
	h := newTestRouter(store, nil, "")

	body := `{"topicIds":["pets","missing"],"attributes":{"tags":["pets"]}}`
	w := do(t, h, http.MethodPut, "/admin/content/card-1/topics", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", w.Code, w.Body.String())
	}
	var edges []domain.ContentTopicEdge
	decodeBody(t, w, &edges)
	if len(edges) != 1 || edges[0].TopicID != "pets" {
		t.Fatalf("неожиданные связи: %+v", edges)
	}

	w = do(t, h, http.MethodGet, "/admin/content/card-1/topics", "", nil)
	edges = nil
	decodeBody(t, w, &edges)
	if len(edges) != 1 {
		t.Fatalf("ожидали сохранённую связь, получили %+v", edges)
	}
}

func TestAdminReplaceTopicsQueued(t *testing.T) {
	queue := &stubQueue{}
	h := newTestRouter(newTestStore(), queue, "")

	w := do(t, h, http.MethodPut, "/admin/content/card-7/topics", `{"topicIds":["pets"],"kind":"card"}`, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("ожидали 202, получили %d", w.Code)
	}
	var resp jobAcceptedResponse
	decodeBody(t, w, &resp)
	if len(queue.jobs) != 1 {
		t.Fatalf("ожидали одну задачу в очереди, получили %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.ID != resp.JobID || job.ContentID != "card-7" || job.Kind != domain.ContentKindCard {
		t.Fatalf("неожиданная задача: %+v", job)
	}
}

func TestAdminRejectsUnknownFields(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	w := do(t, h, http.MethodPost, "/admin/suggest", `{"colour":"red"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", w.Code)
	}
}

func TestAdminSuggest(t *testing.T) {
	h := newTestRouter(newTestStore(), nil, "")
	w := do(t, h, http.MethodPost, "/admin/suggest", `{"tags":["schools"]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", w.Code)
	}
	var scored []domain.ScoredTopic
	decodeBody(t, w, &scored)
	if len(scored) != 1 || scored[0].Topic.ID != "family" {
		t.Fatalf("ожидали только family: %+v", scored)
	}
}
