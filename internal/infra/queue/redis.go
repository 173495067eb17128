package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// RedisTagQueue реализует очередь задач тегирования на базе Redis lists.
// Нераспознанные сообщения перекладываются в список <key>:dead.
type RedisTagQueue struct {
	client *redis.Client
	key    string
	wait   time.Duration
}

var _ domain.TagQueue = (*RedisTagQueue)(nil)

// NewRedisTagQueue создаёт очередь по указанному ключу.
func NewRedisTagQueue(client *redis.Client, key string) *RedisTagQueue {
	return &RedisTagQueue{client: client, key: key, wait: time.Second}
}

func (q *RedisTagQueue) deadKey() string {
	return q.key + ":dead"
}

// Enqueue публикует задачу в очередь.
func (q *RedisTagQueue) Enqueue(ctx context.Context, job domain.TagJob) error {
	job = prepareJob(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisTagQueue) Pop(ctx context.Context) (domain.TagJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.TagJob{}, err
		}

		res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.TagJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.TagJob{}, err
		}
		if len(res) != 2 {
			return domain.TagJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.TagJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil || job.ContentID == "" {
			start := time.Now()
			dlqErr := q.client.LPush(ctx, q.deadKey(), res[1]).Err()
			metrics.ObserveNetworkRequest("redis", "lpush", q.deadKey(), start, dlqErr)
			if err == nil {
				err = errors.New("empty content_id")
			}
			return domain.TagJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

// Len возвращает число ожидающих задач.
func (q *RedisTagQueue) Len(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := q.client.LLen(ctx, q.key).Result()
	metrics.ObserveNetworkRequest("redis", "llen", q.key, start, err)
	return n, err
}
