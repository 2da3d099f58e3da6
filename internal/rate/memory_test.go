package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllowAndWindow(t *testing.T) {
	lim := NewMemory(2, time.Second)
	now := time.Now()

	allowed, retry, err := lim.Allow(context.Background(), "pin:tax:u1", now)
	if err != nil || !allowed || retry != 0 {
		t.Fatalf("expected allow on first call")
	}

	allowed, retry, err = lim.Allow(context.Background(), "pin:tax:u1", now)
	if err != nil || !allowed || retry != 0 {
		t.Fatalf("expected allow on second call")
	}

	allowed, retry, err = lim.Allow(context.Background(), "pin:tax:u1", now)
	if err != nil || allowed {
		t.Fatalf("expected rate limit on third call")
	}
	if retry != time.Second {
		t.Fatalf("expected retryAfter 1s, got %v", retry)
	}

	allowed, _, err = lim.Allow(context.Background(), "pin:tax:u1", now.Add(2*time.Second))
	if err != nil || !allowed {
		t.Fatalf("expected allow after window reset")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	now := time.Now()

	lim.Allow(context.Background(), "a", now)
	if allowed, _, _ := lim.Allow(context.Background(), "a", now); allowed {
		t.Fatalf("expected key a limited")
	}
	if allowed, _, _ := lim.Allow(context.Background(), "b", now); !allowed {
		t.Fatalf("expected key b allowed")
	}
}

func TestMemoryLimiterReset(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()
	now := time.Now()

	lim.Allow(ctx, "login:a@example.com", now)
	if allowed, _, _ := lim.Allow(ctx, "login:a@example.com", now); allowed {
		t.Fatalf("expected limited before reset")
	}
	if err := lim.Reset(ctx, "login:a@example.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if allowed, _, _ := lim.Allow(ctx, "login:a@example.com", now); !allowed {
		t.Fatalf("expected allow after reset")
	}
}
