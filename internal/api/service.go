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

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/prime"
	"wallet-lifecycle-go/internal/rate"
	"wallet-lifecycle-go/internal/security"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

// Notifier receives side effects of committed operations. Implementations
// must not block; delivery failures stay on their side.
type Notifier interface {
	InApp(n models.Notification)
	Email(to, template string, data any)
	Event(event models.LifecycleEvent)
}

// Settings holds the tunables of the service
type Settings struct {
	SessionTtl           time.Duration
	OtpTtl               time.Duration
	OtpMaxAttempts       int
	OtpDigits            int
	DepositConfirmations int
}

// Dependencies are the collaborators of the service. A nil Notifier
// discards side effects.
type Dependencies struct {
	Hasher       *security.Hasher
	PinLimiter   rate.Limiter
	LoginLimiter rate.Limiter
	ResetLimiter rate.Limiter
	Rail         prime.Rail
	Notifier     Notifier
	Clock        func() time.Time
}

// LedgerService exposes every public procedure. Each returns an envelope
// and never a Go error.
type LedgerService struct {
	store        store.Store
	hasher       *security.Hasher
	pinLimiter   rate.Limiter
	loginLimiter rate.Limiter
	resetLimiter rate.Limiter
	rail         prime.Rail
	notifier     Notifier
	now          func() time.Time
	settings     Settings
}

const concurrentRetries = 3

func NewLedgerService(st store.Store, deps Dependencies, settings Settings) *LedgerService {
	if deps.Hasher == nil {
		deps.Hasher = security.NewHasher(security.DefaultParams())
	}
	if deps.Notifier == nil {
		deps.Notifier = discardNotifier{}
	}
	if deps.Rail == nil {
		deps.Rail = prime.NewPlaceholderRail()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if settings.SessionTtl <= 0 {
		settings.SessionTtl = 24 * time.Hour
	}
	if settings.OtpTtl <= 0 {
		settings.OtpTtl = 15 * time.Minute
	}
	if settings.OtpMaxAttempts <= 0 {
		settings.OtpMaxAttempts = 5
	}
	if settings.OtpDigits <= 0 {
		settings.OtpDigits = 6
	}
	if settings.DepositConfirmations <= 0 {
		settings.DepositConfirmations = 3
	}
	return &LedgerService{
		store:        st,
		hasher:       deps.Hasher,
		pinLimiter:   deps.PinLimiter,
		loginLimiter: deps.LoginLimiter,
		resetLimiter: deps.ResetLimiter,
		rail:         deps.Rail,
		notifier:     deps.Notifier,
		now:          func() time.Time { return deps.Clock().UTC() },
		settings:     settings,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// resolve maps a session token to its principal
func (s *LedgerService) resolve(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, errNotAuthenticated
	}
	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotAuthenticated
		}
		return nil, err
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, errNotAuthenticated
	}
	user, err := s.store.GetUserById(ctx, session.UserId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotAuthenticated
		}
		return nil, err
	}
	return &models.Principal{
		UserId:  user.Id,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		Token:   token,
	}, nil
}

func (s *LedgerService) requireAdmin(ctx context.Context, token string) (*models.Principal, error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		return nil, errNotAuthorized
	}
	return principal, nil
}

// withRetry reruns fn while the store reports a lost optimistic-lock race
func withRetry[T any](fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 0; attempt < concurrentRetries; attempt++ {
		result, err = fn()
		if !errors.Is(err, store.ErrConcurrentModification) {
			return result, err
		}
	}
	return result, err
}

// checkAttempt records an attempt against key and rejects when over the limit
func checkAttempt(ctx context.Context, limiter rate.Limiter, key string, now time.Time) error {
	if limiter == nil {
		return nil
	}
	allowed, retryAfter, err := limiter.Allow(ctx, key, now)
	if err != nil {
		return fmt.Errorf("attempt limiter: %w", err)
	}
	if !allowed {
		return newError(CodeTooManyAttempts,
			fmt.Sprintf("too many attempts, retry in %s", retryAfter.Round(time.Second)))
	}
	return nil
}

func resetAttempts(ctx context.Context, limiter rate.Limiter, key string) {
	if limiter == nil {
		return
	}
	if err := limiter.Reset(ctx, key); err != nil {
		zap.L().Warn("Failed to reset attempt counter", zap.String("key", key), zap.Error(err))
	}
}

type discardNotifier struct{}

func (discardNotifier) InApp(models.Notification)   {}
func (discardNotifier) Email(string, string, any)   {}
func (discardNotifier) Event(models.LifecycleEvent) {}
