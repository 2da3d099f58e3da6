package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestDispatcher(t *testing.T, cfg DispatcherConfig) (*Dispatcher, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewDispatcher(cfg, metrics), metrics
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	d, metrics := newTestDispatcher(t, DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 3, TaskTimeout: time.Second, BaseBackoff: time.Millisecond,
	})
	d.Start(context.Background())

	var calls atomic.Int32
	d.Enqueue(Task{Kind: KindEmail, Name: "flaky", Run: func(ctx context.Context) error {
		if calls.Add(1) < 2 {
			return errors.New("smtp unavailable")
		}
		return nil
	}})

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls.Load())
	}
	if got := testutil.ToFloat64(metrics.Tasks.WithLabelValues(KindEmail, "retried")); got != 1 {
		t.Errorf("Expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Tasks.WithLabelValues(KindEmail, "succeeded")); got != 1 {
		t.Errorf("Expected 1 success, got %v", got)
	}
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	d, metrics := newTestDispatcher(t, DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 3, TaskTimeout: time.Second, BaseBackoff: time.Millisecond,
	})
	d.Start(context.Background())

	var calls atomic.Int32
	d.Enqueue(Task{Kind: KindEvent, Name: "broken", Run: func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("broker down")
	}})
	d.Stop(context.Background())

	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
	if got := testutil.ToFloat64(metrics.Tasks.WithLabelValues(KindEvent, "failed")); got != 1 {
		t.Errorf("Expected 1 failure, got %v", got)
	}
}

func TestDispatcher_RecoversPanickingTask(t *testing.T) {
	d, metrics := newTestDispatcher(t, DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 3, TaskTimeout: time.Second, BaseBackoff: time.Millisecond,
	})
	d.Start(context.Background())

	var panics, delivered atomic.Int32
	d.Enqueue(Task{Kind: KindMirror, Name: "nil sink", Run: func(ctx context.Context) error {
		panics.Add(1)
		var sink map[string]int
		sink["entry"]++
		return nil
	}})
	d.Enqueue(Task{Kind: KindEmail, Name: "after panic", Run: func(ctx context.Context) error {
		delivered.Add(1)
		return nil
	}})

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if panics.Load() != 1 {
		t.Errorf("Expected a panicking task to run once, got %d", panics.Load())
	}
	if delivered.Load() != 1 {
		t.Errorf("Expected the worker to keep serving after a panic, got %d deliveries", delivered.Load())
	}
	if got := testutil.ToFloat64(metrics.Tasks.WithLabelValues(KindMirror, "failed")); got != 1 {
		t.Errorf("Expected 1 failure, got %v", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	// Not started: nothing drains the queue.
	d, metrics := newTestDispatcher(t, DispatcherConfig{Workers: 1, QueueSize: 1, MaxAttempts: 1})

	noop := Task{Kind: KindInApp, Name: "n", Run: func(ctx context.Context) error { return nil }}
	if !d.Enqueue(noop) {
		t.Fatal("Expected first task to be accepted")
	}
	if d.Enqueue(noop) {
		t.Fatal("Expected second task to be dropped")
	}
	if got := testutil.ToFloat64(metrics.Tasks.WithLabelValues(KindInApp, "dropped")); got != 1 {
		t.Errorf("Expected 1 dropped task, got %v", got)
	}
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	d, _ := newTestDispatcher(t, DispatcherConfig{Workers: 2, QueueSize: 16, MaxAttempts: 1, TaskTimeout: time.Second})
	d.Start(context.Background())

	var mu sync.Mutex
	done := 0
	for i := 0; i < 10; i++ {
		d.Enqueue(Task{Kind: KindInApp, Name: "n", Run: func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			done++
			mu.Unlock()
			return nil
		}})
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if done != 10 {
		t.Errorf("Expected 10 completed tasks, got %d", done)
	}

	if d.Enqueue(Task{Kind: KindInApp, Run: func(ctx context.Context) error { return nil }}) {
		t.Error("Expected enqueue after Stop to be refused")
	}
	if err := d.Stop(context.Background()); !errors.Is(err, ErrDispatcherStopped) {
		t.Errorf("Expected ErrDispatcherStopped on second Stop, got %v", err)
	}
}

func TestDispatcher_TaskTimeout(t *testing.T) {
	d, _ := newTestDispatcher(t, DispatcherConfig{Workers: 1, QueueSize: 1, MaxAttempts: 1, TaskTimeout: 10 * time.Millisecond})
	d.Start(context.Background())

	var sawDeadline atomic.Bool
	d.Enqueue(Task{Kind: KindMirror, Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}})
	d.Stop(context.Background())

	if !sawDeadline.Load() {
		t.Error("Expected task context to hit its deadline")
	}
}
