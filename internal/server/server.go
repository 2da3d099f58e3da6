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

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wallet-lifecycle-go/internal/api"
	"wallet-lifecycle-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionCookie = "session_token"

// Server exposes the ledger service over HTTP
type Server struct {
	svc      *api.LedgerService
	registry *prometheus.Registry
	metrics  *httpMetrics
	cfg      models.ServerConfig
	http     *http.Server
}

func New(svc *api.LedgerService, registry *prometheus.Registry, cfg models.ServerConfig) *Server {
	s := &Server{
		svc:      svc,
		registry: registry,
		metrics:  newHttpMetrics(registry),
		cfg:      cfg,
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/logout", s.logout)
			r.Post("/password-reset", s.requestPasswordReset)
			r.Post("/password-reset/confirm", s.resetPassword)
		})
		r.Post("/otp/email/send", s.issueEmailOtp)
		r.Post("/otp/email/verify", s.verifyEmailOtp)
		r.Post("/pin/tax-code/validate", s.validateTaxCodePin)
		r.Post("/pin/withdrawal/validate", s.validateWithdrawalPin)

		r.Get("/wallet", s.getWallet)
		r.Get("/withdrawals", s.listWithdrawals)
		r.Post("/withdrawals", s.submitWithdrawal)
		r.Get("/deposits", s.listDeposits)
		r.Post("/deposits", s.submitDeposit)
		r.Get("/notifications", s.listNotifications)
		r.Post("/notifications/{id}/read", s.markNotificationRead)
		r.Get("/payment-methods", s.listPaymentMethods)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/pending", s.listPending)
			r.Route("/users/{userId}", func(r chi.Router) {
				r.Post("/deposits/{id}/approve", s.approveDeposit)
				r.Post("/deposits/{id}/reject", s.rejectDeposit)
				r.Post("/withdrawals/{id}/approve", s.approveWithdrawal)
				r.Post("/withdrawals/{id}/reject", s.rejectWithdrawal)
				r.Post("/holdings", s.creditHolding)
			})
		})
	})
	return r
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	zap.L().Info("Shutting down HTTP server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.HealthCheck(r.Context()); err != nil {
		zap.L().Warn("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, models.Fail[bool](api.CodePersistenceError, "unhealthy"))
		return
	}
	writeJSON(w, http.StatusOK, models.Ok(true, "ok"))
}
