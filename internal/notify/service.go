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
	"fmt"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationStore persists in-app notifications
type NotificationStore interface {
	InsertNotification(ctx context.Context, n models.Notification) error
}

// LedgerMirror copies lifecycle events into an external ledger
type LedgerMirror interface {
	Post(ctx context.Context, event models.LifecycleEvent) error
}

// Service turns domain happenings into dispatcher tasks. Every method
// returns immediately; delivery happens on the dispatcher workers.
type Service struct {
	dispatcher *Dispatcher
	store      NotificationStore
	mailer     Mailer
	templates  *Templates
	sink       EventSink
	mirror     LedgerMirror
}

// Options carries the optional delivery channels. Nil channels are skipped.
type Options struct {
	Mailer    Mailer
	Templates *Templates
	Sink      EventSink
	Mirror    LedgerMirror
}

func NewService(dispatcher *Dispatcher, store NotificationStore, opts Options) *Service {
	return &Service{
		dispatcher: dispatcher,
		store:      store,
		mailer:     opts.Mailer,
		templates:  opts.Templates,
		sink:       opts.Sink,
		mirror:     opts.Mirror,
	}
}

// InApp schedules an in-app notification row
func (s *Service) InApp(n models.Notification) {
	if n.Id == "" {
		n.Id = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.dispatcher.Enqueue(Task{
		Kind: KindInApp,
		Name: n.Type + ":" + n.UserId,
		Run: func(ctx context.Context) error {
			return s.store.InsertNotification(ctx, n)
		},
	})
}

// Email renders the named template and schedules its delivery
func (s *Service) Email(to, template string, data any) {
	if s.mailer == nil || s.templates == nil || to == "" {
		zap.L().Debug("Email channel disabled, skipping", zap.String("template", template))
		return
	}

	subject, body, err := s.templates.Render(template, data)
	if err != nil {
		zap.L().Error("Failed to render email", zap.String("template", template), zap.Error(err))
		return
	}

	s.dispatcher.Enqueue(Task{
		Kind: KindEmail,
		Name: template,
		Run: func(ctx context.Context) error {
			return s.mailer.Send(ctx, to, subject, body)
		},
	})
}

// Event schedules publication and ledger mirroring of a committed event
func (s *Service) Event(event models.LifecycleEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if s.sink != nil {
		s.dispatcher.Enqueue(Task{
			Kind: KindEvent,
			Name: event.Reference(),
			Run: func(ctx context.Context) error {
				return s.sink.Publish(ctx, event)
			},
		})
	}
	if s.mirror != nil {
		s.dispatcher.Enqueue(Task{
			Kind: KindMirror,
			Name: event.Reference(),
			Run: func(ctx context.Context) error {
				if err := s.mirror.Post(ctx, event); err != nil {
					return fmt.Errorf("mirror %s: %w", event.Reference(), err)
				}
				return nil
			},
		})
	}
}

// Close releases the event sink. Call after the dispatcher has stopped.
func (s *Service) Close() error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}
