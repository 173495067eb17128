package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// QueryCards реализует domain.CardRepo.
func (p *Postgres) QueryCards(ctx context.Context, q domain.CardQuery) ([]domain.Card, error) {
	sql, args, ok := buildCardQuery(q)
	if !ok {
		return nil, nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	metrics.ObserveNetworkRequest("postgres", "content_cards_query", "content_cards", start, err)
	if err != nil {
		return nil, storeErr("query cards", err)
	}
	defer rows.Close()
	cards := make([]domain.Card, 0, q.Limit)
	for rows.Next() {
		row, err := scanCardRow(rows)
		if err != nil {
			return nil, storeErr("scan card", err)
		}
		cards = append(cards, cardFromRow(row))
	}
	return cards, storeErr("iterate cards", rows.Err())
}

// GetCard реализует domain.CardRepo.
func (p *Postgres) GetCard(ctx context.Context, id string) (domain.Card, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row, err := scanCardRow(p.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM content_cards c WHERE c.id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "content_cards_get", "content_cards", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Card{}, domain.ErrContentNotFound
	}
	if err != nil {
		return domain.Card{}, storeErr("get card", err)
	}
	return cardFromRow(row), nil
}

// QueryShorts реализует domain.ShortRepo.
func (p *Postgres) QueryShorts(ctx context.Context, q domain.ShortQuery) ([]domain.Short, error) {
	sql, args, ok := buildShortQuery(q)
	if !ok {
		return nil, nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	metrics.ObserveNetworkRequest("postgres", "explore_shorts_query", "explore_shorts", start, err)
	if err != nil {
		return nil, storeErr("query shorts", err)
	}
	defer rows.Close()
	shorts := make([]domain.Short, 0, q.Limit)
	for rows.Next() {
		row, err := scanShortRow(rows)
		if err != nil {
			return nil, storeErr("scan short", err)
		}
		shorts = append(shorts, shortFromRow(row))
	}
	return shorts, storeErr("iterate shorts", rows.Err())
}

// GetShort реализует domain.ShortRepo.
func (p *Postgres) GetShort(ctx context.Context, id string) (domain.Short, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row, err := scanShortRow(p.pool.QueryRow(ctx, `SELECT `+shortColumns+` FROM explore_shorts s WHERE s.id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "explore_shorts_get", "explore_shorts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Short{}, domain.ErrContentNotFound
	}
	if err != nil {
		return domain.Short{}, storeErr("get short", err)
	}
	return shortFromRow(row), nil
}

func scanCardRow(row pgx.Row) (cardRow, error) {
	var r cardRow
	err := row.Scan(&r.ID, &r.Title, &r.ContentType, &r.Tags, &r.Metadata, &r.PartnerCategory,
		&r.PriceMin, &r.PriceMax, &r.EngagementScore, &r.IsActive, &r.CreatedAt)
	return r, err
}

func scanShortRow(row pgx.Row) (shortRow, error) {
	var r shortRow
	err := row.Scan(&r.ID, &r.Title, &r.ContentType, &r.Highlights, &r.PerformanceScore, &r.IsPublished, &r.PublishedAt)
	return r, err
}
