package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.TopicRepo          = (*Postgres)(nil)
	_ domain.EdgeRepo           = (*Postgres)(nil)
	_ domain.CardRepo           = (*Postgres)(nil)
	_ domain.ShortRepo          = (*Postgres)(nil)
	_ domain.BusinessMetricRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// storeErr помечает сбой хранилища как domain.ErrStoreUnavailable, сохраняя исходную ошибку.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// RecordBusinessMetric сохраняет бизнесовую метрику в БД.
func (p *Postgres) RecordBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	if metric.Event == "" {
		return nil
	}
	if metric.OccurredAt.IsZero() {
		metric.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var payload []byte
	if metric.Metadata != nil {
		if data, err := json.Marshal(metric.Metadata); err == nil {
			payload = data
		}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO business_metrics (event, topic_id, content_id, metadata, occurred_at)
VALUES ($1, $2, $3, $4, $5)
`, metric.Event, metric.TopicID, metric.ContentID, payload, metric.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "business_metrics_insert", "business_metrics", start, err)
	return err
}

// ReplaceContentTopics удаляет старые связи и вставляет новые в одной транзакции.
func (p *Postgres) ReplaceContentTopics(ctx context.Context, contentID string, edges []domain.ContentTopicEdge) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "content_topics", start, err)
	if err != nil {
		return storeErr("begin tx", err)
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM content_topics WHERE content_id=$1`, contentID)
	metrics.ObserveNetworkRequest("postgres", "content_topics_delete", "content_topics", start, err)
	if err != nil {
		return storeErr("delete content topics", err)
	}

	if len(edges) > 0 {
		batch := &pgx.Batch{}
		now := time.Now().UTC()
		for _, edge := range edges {
			createdAt := edge.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			batch.Queue(`
INSERT INTO content_topics (content_id, topic_id, relevance_score, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (content_id, topic_id) DO UPDATE SET relevance_score = EXCLUDED.relevance_score, created_at = EXCLUDED.created_at
`, contentID, edge.TopicID, edge.RelevanceScore, createdAt)
		}
		start = time.Now()
		br := tx.SendBatch(ctx, batch)
		metrics.ObserveNetworkRequest("postgres", "content_topics_send_batch", "content_topics", start, nil)
		for range edges {
			start = time.Now()
			_, err := br.Exec()
			metrics.ObserveNetworkRequest("postgres", "content_topics_batch_exec", "content_topics", start, err)
			if err != nil {
				_ = br.Close()
				return storeErr("insert content topics", err)
			}
		}
		if err := br.Close(); err != nil {
			return storeErr("close batch", err)
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "content_topics", start, err)
	if err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// ListContentTopics возвращает связи контента, сильнейшие первыми.
func (p *Postgres) ListContentTopics(ctx context.Context, contentID string) ([]domain.ContentTopicEdge, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT content_id, topic_id, relevance_score, created_at
FROM content_topics WHERE content_id=$1
ORDER BY relevance_score DESC, topic_id
`, contentID)
	metrics.ObserveNetworkRequest("postgres", "content_topics_list_by_content", "content_topics", start, err)
	if err != nil {
		return nil, storeErr("list content topics", err)
	}
	defer rows.Close()
	var edges []domain.ContentTopicEdge
	for rows.Next() {
		var e domain.ContentTopicEdge
		if err := rows.Scan(&e.ContentID, &e.TopicID, &e.RelevanceScore, &e.CreatedAt); err != nil {
			return nil, storeErr("scan content topic", err)
		}
		edges = append(edges, e)
	}
	return edges, storeErr("iterate content topics", rows.Err())
}

// ListTopicContentIDs возвращает идентификаторы контента с явной связью с темой.
func (p *Postgres) ListTopicContentIDs(ctx context.Context, topicID string) ([]string, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT content_id FROM content_topics WHERE topic_id=$1`, topicID)
	metrics.ObserveNetworkRequest("postgres", "content_topics_list_by_topic", "content_topics", start, err)
	if err != nil {
		return nil, storeErr("list topic content", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan content id", err)
		}
		ids = append(ids, id)
	}
	return ids, storeErr("iterate topic content", rows.Err())
}

// CountTopicContent считает только явные связи.
func (p *Postgres) CountTopicContent(ctx context.Context, topicID string) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_topics WHERE topic_id=$1`, topicID).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "content_topics_count", "content_topics", start, err)
	if err != nil {
		return 0, storeErr("count topic content", err)
	}
	return count, nil
}
