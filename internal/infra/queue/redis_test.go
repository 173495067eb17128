package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"estate-discovery/internal/domain"
)

func newTestRedisQueue(t *testing.T) (*RedisTagQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisTagQueue(client, "tag_jobs")
	q.wait = 50 * time.Millisecond
	return q, mr
}

func TestRedisTagQueueRoundTrip(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx := context.Background()

	job := domain.TagJob{ContentID: "card-1", Kind: domain.ContentKindCard, TopicIDs: []string{"t1", "t2"}}
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, domain.TagJob{ContentID: "card-2", Kind: domain.ContentKindCard}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if n, _ := q.Len(ctx); n != 2 {
		t.Fatalf("ожидали 2 задачи в очереди, получили %d", n)
	}

	got, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if got.ContentID != "card-1" || len(got.TopicIDs) != 2 {
		t.Fatalf("очередь должна быть FIFO, получили %+v", got)
	}
	if got.ID == "" || got.RequestedAt.IsZero() || got.Cause != domain.TagCauseAdmin {
		t.Fatalf("задача должна получить id, время и причину: %+v", got)
	}
}

func TestRedisTagQueuePopHonoursContext(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := q.Pop(ctx); err == nil {
		t.Fatalf("ожидали ошибку отмены контекста")
	}
}

func TestRedisTagQueueDeadLetter(t *testing.T) {
	q, mr := newTestRedisQueue(t)
	if _, err := mr.Lpush("tag_jobs", "{broken"); err != nil {
		t.Fatalf("lpush: %v", err)
	}
	if _, err := q.Pop(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку декодирования")
	}
	dead, err := mr.List("tag_jobs:dead")
	if err != nil || len(dead) != 1 || dead[0] != "{broken" {
		t.Fatalf("битое сообщение должно попасть в dead-список, получили %v (%v)", dead, err)
	}
}
