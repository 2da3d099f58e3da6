/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task kinds
const (
	KindInApp  = "in_app"
	KindEmail  = "email"
	KindEvent  = "event"
	KindMirror = "ledger_mirror"
)

var (
	ErrDispatcherStopped = errors.New("dispatcher stopped")
	errTaskPanicked      = errors.New("task panicked")
)

// Task is one side effect executed after a state change has committed
type Task struct {
	Kind string
	Name string
	Run  func(ctx context.Context) error
}

// DispatcherConfig controls worker count, queue bound and retry policy
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	TaskTimeout time.Duration
	BaseBackoff time.Duration
}

// Dispatcher runs tasks on a bounded queue with a fixed worker pool.
// Enqueue never blocks the caller; task failures are logged and counted,
// never returned.
type Dispatcher struct {
	cfg     DispatcherConfig
	queue   chan Task
	metrics *Metrics
	group   *errgroup.Group

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewDispatcher(cfg DispatcherConfig, metrics *Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}
	return &Dispatcher{
		cfg:     cfg,
		queue:   make(chan Task, cfg.QueueSize),
		metrics: metrics,
		group:   &errgroup.Group{},
	}
}

// Start launches the workers. ctx bounds task execution; cancel it only
// after Stop has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.group.Go(func() error {
			for task := range d.queue {
				d.observeDepth()
				d.run(ctx, task)
			}
			return nil
		})
	}
	zap.L().Info("Notification dispatcher started",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize))
}

// Enqueue schedules a task and reports whether it was accepted
func (d *Dispatcher) Enqueue(task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.count(task.Kind, "dropped")
		zap.L().Warn("Notification task dropped after shutdown",
			zap.String("kind", task.Kind),
			zap.String("name", task.Name))
		return false
	}

	select {
	case d.queue <- task:
		d.count(task.Kind, "queued")
		d.observeDepth()
		return true
	default:
		d.count(task.Kind, "dropped")
		zap.L().Warn("Notification queue full, task dropped",
			zap.String("kind", task.Kind),
			zap.String("name", task.Name),
			zap.Int("queue_size", d.cfg.QueueSize))
		return false
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to expire
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()

	select {
	case err := <-done:
		zap.L().Info("Notification dispatcher drained")
		return err
	case <-ctx.Done():
		zap.L().Warn("Notification dispatcher stop timed out", zap.Int("pending", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, task Task) {
	backoff := d.cfg.BaseBackoff
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
		start := time.Now()
		err := runTask(attemptCtx, task)
		cancel()
		if d.metrics != nil {
			d.metrics.Duration.WithLabelValues(task.Kind).Observe(time.Since(start).Seconds())
		}

		if err == nil {
			d.count(task.Kind, "succeeded")
			return
		}

		if attempt == d.cfg.MaxAttempts || errors.Is(err, errTaskPanicked) {
			d.count(task.Kind, "failed")
			zap.L().Error("Notification task failed",
				zap.String("kind", task.Kind),
				zap.String("name", task.Name),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return
		}

		d.count(task.Kind, "retried")
		zap.L().Warn("Notification task attempt failed, retrying",
			zap.String("kind", task.Kind),
			zap.String("name", task.Name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			d.count(task.Kind, "failed")
			return
		}
		backoff *= 2
	}
}

// runTask turns a panic inside the task into an error so one broken sink
// cannot take the worker down.
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTaskPanicked, r)
		}
	}()
	return task.Run(ctx)
}

func (d *Dispatcher) count(kind, status string) {
	if d.metrics != nil {
		d.metrics.Tasks.WithLabelValues(kind, status).Inc()
	}
}

func (d *Dispatcher) observeDepth() {
	if d.metrics != nil {
		d.metrics.QueueDepth.Set(float64(len(d.queue)))
	}
}
