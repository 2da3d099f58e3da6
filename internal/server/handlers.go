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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wallet-lifecycle-go/internal/api"
	"wallet-lifecycle-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetBody struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type codeBody struct {
	Code string `json:"code"`
}

type pinBody struct {
	Pin string `json:"pin"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

type creditBody struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}
	env := s.svc.Login(r.Context(), body.Email, body.Password)
	if env.Success {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    env.Data.Token,
			Path:     "/",
			Expires:  env.Data.ExpiresAt,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	respond(w, env)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	env := s.svc.Logout(r.Context(), token(r))
	if env.Success {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
		})
	}
	respond(w, env)
}

func (s *Server) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.RequestPasswordReset(r.Context(), body.Email))
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.ResetPassword(r.Context(), body.Email, body.Code, body.NewPassword))
}

func (s *Server) issueEmailOtp(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.IssueEmailOtp(r.Context(), token(r)))
}

func (s *Server) verifyEmailOtp(w http.ResponseWriter, r *http.Request) {
	var body codeBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.VerifyEmailOtp(r.Context(), token(r), body.Code))
}

func (s *Server) validateTaxCodePin(w http.ResponseWriter, r *http.Request) {
	var body pinBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.ValidateTaxCodePin(r.Context(), token(r), body.Pin))
}

func (s *Server) validateWithdrawalPin(w http.ResponseWriter, r *http.Request) {
	var body pinBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.ValidateWithdrawalPin(r.Context(), token(r), body.Pin))
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.GetWallet(r.Context(), token(r)))
}

func (s *Server) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.ListWithdrawals(r.Context(), token(r)))
}

func (s *Server) submitWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body models.WithdrawalRequest
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.SubmitWithdrawal(r.Context(), token(r), body))
}

func (s *Server) listDeposits(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.ListDeposits(r.Context(), token(r)))
}

func (s *Server) submitDeposit(w http.ResponseWriter, r *http.Request) {
	var body models.DepositRequest
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.SubmitDeposit(r.Context(), token(r), body))
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond(w, models.Fail[[]models.Notification](api.CodeValidationError, "limit must be a number"))
			return
		}
		limit = n
	}
	respond(w, s.svc.ListNotifications(r.Context(), token(r), limit))
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.MarkNotificationRead(r.Context(), token(r), chi.URLParam(r, "id")))
}

func (s *Server) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("is_active") == "false" || r.URL.Query().Get("include_inactive") == "true"
	respond(w, s.svc.ListPaymentMethods(r.Context(), token(r), includeInactive))
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.ListPending(r.Context(), token(r)))
}

func (s *Server) approveDeposit(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.ApproveDeposit(r.Context(), token(r), chi.URLParam(r, "userId"), chi.URLParam(r, "id")))
}

func (s *Server) rejectDeposit(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.RejectDeposit(r.Context(), token(r), chi.URLParam(r, "userId"), chi.URLParam(r, "id"), body.Reason))
}

func (s *Server) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	respond(w, s.svc.ApproveWithdrawal(r.Context(), token(r), chi.URLParam(r, "userId"), chi.URLParam(r, "id")))
}

func (s *Server) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.RejectWithdrawal(r.Context(), token(r), chi.URLParam(r, "userId"), chi.URLParam(r, "id"), body.Reason))
}

func (s *Server) creditHolding(w http.ResponseWriter, r *http.Request) {
	var body creditBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s.svc.CreditHolding(r.Context(), token(r), chi.URLParam(r, "userId"), body.Symbol, body.Amount))
}

// token reads the session from the cookie, falling back to a bearer header
func token(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				models.Fail[struct{}](api.CodeValidationError, "request body too large"))
			return false
		}
		writeJSON(w, http.StatusUnprocessableEntity,
			models.Fail[struct{}](api.CodeValidationError, "invalid JSON body"))
		return false
	}
	return true
}

func respond[T any](w http.ResponseWriter, env models.Envelope[T]) {
	status := http.StatusOK
	if !env.Success {
		status = statusFor(env.Code)
	}
	writeJSON(w, status, env)
}

func statusFor(code string) int {
	switch code {
	case api.CodeNotAuthenticated:
		return http.StatusUnauthorized
	case api.CodeNotAuthorized:
		return http.StatusForbidden
	case api.CodeNotFound:
		return http.StatusNotFound
	case api.CodeAlreadyProcessed:
		return http.StatusConflict
	case api.CodeValidationError, api.CodeInvalidPin, api.CodeInvalidCode,
		api.CodeExpired, api.CodeAlreadyUsed, api.CodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	case api.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case api.CodeRailError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to write response", zap.Error(err))
	}
}
