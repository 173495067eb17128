package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

const topicColumns = `id, slug, name, description, icon, display_order, is_active, content_tags, property_features, partner_categories, created_at, updated_at`

// ListActiveTopics реализует domain.TopicRepo.
func (p *Postgres) ListActiveTopics(ctx context.Context) ([]domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+topicColumns+`
FROM topics WHERE is_active
ORDER BY display_order ASC, name ASC
`)
	metrics.ObserveNetworkRequest("postgres", "topics_list_active", "topics", start, err)
	if err != nil {
		return nil, storeErr("list topics", err)
	}
	defer rows.Close()
	var topics []domain.Topic
	for rows.Next() {
		row, err := scanTopicRow(rows)
		if err != nil {
			return nil, storeErr("scan topic", err)
		}
		topics = append(topics, topicFromRow(row))
	}
	return topics, storeErr("iterate topics", rows.Err())
}

// GetTopicBySlug реализует domain.TopicRepo.
func (p *Postgres) GetTopicBySlug(ctx context.Context, slug string) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row, err := scanTopicRow(p.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE slug=$1 AND is_active`, slug))
	metrics.ObserveNetworkRequest("postgres", "topics_get_by_slug", "topics", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, storeErr("get topic by slug", err)
	}
	return topicFromRow(row), nil
}

// GetTopicByID реализует domain.TopicRepo.
func (p *Postgres) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row, err := scanTopicRow(p.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "topics_get_by_id", "topics", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, storeErr("get topic by id", err)
	}
	return topicFromRow(row), nil
}

func scanTopicRow(row pgx.Row) (topicRow, error) {
	var r topicRow
	err := row.Scan(&r.ID, &r.Slug, &r.Name, &r.Description, &r.Icon, &r.DisplayOrder, &r.IsActive,
		&r.ContentTags, &r.PropertyFeatures, &r.PartnerCategories, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
