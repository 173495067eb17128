package repo

import (
	"context"
	_ "embed"
	"time"

	"estate-discovery/internal/infra/metrics"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema создаёт таблицы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schemaSQL)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "", start, err)
	if err != nil {
		return storeErr("ensure schema", err)
	}
	return nil
}
