package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		client.Close()
		s.Close()
	})
	return s, client
}

func TestRedisLimiterWindow(t *testing.T) {
	s, client := newTestRedis(t)

	lim := NewRedisLimiter(client, 2, 500*time.Millisecond, "test:")
	ctx := context.Background()

	allowed, _, err := lim.Allow(ctx, "pin:withdrawal:u1", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow on first call")
	}

	allowed, _, err = lim.Allow(ctx, "pin:withdrawal:u1", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow on second call")
	}

	allowed, retryAfter, err := lim.Allow(ctx, "pin:withdrawal:u1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected rate limited")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected retryAfter > 0")
	}

	s.FastForward(600 * time.Millisecond)
	allowed, _, err = lim.Allow(ctx, "pin:withdrawal:u1", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow after window")
	}
}

func TestRedisLimiterReset(t *testing.T) {
	s, client := newTestRedis(t)

	lim := NewRedisLimiter(client, 1, time.Minute, "test:")
	ctx := context.Background()

	lim.Allow(ctx, "k", time.Now())
	if allowed, _, _ := lim.Allow(ctx, "k", time.Now()); allowed {
		t.Fatalf("expected limited")
	}
	if err := lim.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Exists("test:k") {
		t.Fatalf("expected key removed")
	}
	if allowed, _, _ := lim.Allow(ctx, "k", time.Now()); !allowed {
		t.Fatalf("expected allow after reset")
	}
}
