package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "discovery:"), mr
}

func TestRedisCacheSetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)

	if _, err := c.Get("topics"); !errors.Is(err, ErrMiss) {
		t.Fatalf("ожидали ErrMiss, получили %v", err)
	}
	if err := c.Set("topics", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("discovery:topics") {
		t.Fatalf("ключ должен сохраняться с префиксом")
	}
	data, err := c.Get("topics")
	if err != nil || string(data) != "payload" {
		t.Fatalf("ожидали payload, получили %q (%v)", data, err)
	}
	if err := c.Delete("topics", "absent"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get("topics"); !errors.Is(err, ErrMiss) {
		t.Fatalf("после удаления ожидали промах")
	}
	if err := c.Delete(); err != nil {
		t.Fatalf("пустое удаление не должно падать: %v", err)
	}
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr := newTestCache(t)
	if err := c.Set("count:t1", []byte("3"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := c.Get("count:t1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("значение должно истечь")
	}
}

func TestRedisCacheOnce(t *testing.T) {
	c, _ := newTestCache(t)
	calls := 0
	fn := func() error { calls++; return nil }
	for i := 0; i < 3; i++ {
		if err := c.Once("job", time.Minute, fn); err != nil {
			t.Fatalf("once: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("функция должна выполниться один раз, выполнилась %d", calls)
	}

	failing := errors.New("boom")
	if err := c.Once("retry", time.Minute, func() error { return failing }); !errors.Is(err, failing) {
		t.Fatalf("ожидали ошибку функции")
	}
	retried := false
	if err := c.Once("retry", time.Minute, func() error { retried = true; return nil }); err != nil || !retried {
		t.Fatalf("после ошибки ключ должен сниматься для повторной попытки")
	}
}
