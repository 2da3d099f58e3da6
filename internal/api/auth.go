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
	"strings"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/security"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

const minPasswordLength = 8

var errBadCredentials = newError(CodeNotAuthenticated, "invalid email or password")

func (s *LedgerService) Login(ctx context.Context, email, password string) models.Envelope[models.SessionView] {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fail[models.SessionView]("login", validationError("email and password are required"))
	}

	key := "login:" + email
	if err := checkAttempt(ctx, s.loginLimiter, key, s.now()); err != nil {
		return fail[models.SessionView]("login", err)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[models.SessionView]("login", errBadCredentials)
		}
		return fail[models.SessionView]("login", err)
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return fail[models.SessionView]("login", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return fail[models.SessionView]("login", errBadCredentials)
	}

	token, err := security.SessionToken()
	if err != nil {
		return fail[models.SessionView]("login", err)
	}
	now := s.now()
	session := models.Session{
		Token:     token,
		UserId:    user.Id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.settings.SessionTtl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return fail[models.SessionView]("login", err)
	}
	resetAttempts(ctx, s.loginLimiter, key)

	zap.L().Info("User logged in", zap.String("user_id", user.Id))
	return models.Ok(models.SessionView{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user.Summary(),
	}, "Logged in")
}

func (s *LedgerService) Logout(ctx context.Context, token string) models.Envelope[bool] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[bool]("logout", err)
	}
	if err := s.store.DeleteSession(ctx, principal.Token); err != nil {
		return fail[bool]("logout", err)
	}
	return models.Ok(true, "Logged out")
}

// RequestPasswordReset emails a reset code when the account exists. The
// answer is the same either way. Requests are throttled per address,
// known or not, since each one replaces the outstanding code.
func (s *LedgerService) RequestPasswordReset(ctx context.Context, email string) models.Envelope[bool] {
	const message = "If the account exists, a reset code has been sent"

	email = normalizeEmail(email)
	if email == "" {
		return fail[bool]("request_password_reset", validationError("email is required"))
	}
	if err := checkAttempt(ctx, s.resetLimiter, "reset:"+email, s.now()); err != nil {
		return fail[bool]("request_password_reset", err)
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Ok(true, message)
		}
		return fail[bool]("request_password_reset", err)
	}
	if err := s.issueOtp(ctx, user, models.OtpPasswordReset); err != nil {
		return fail[bool]("request_password_reset", err)
	}
	return models.Ok(true, message)
}

// ResetPassword consumes a reset code, stores the new password and
// revokes every session of the user.
func (s *LedgerService) ResetPassword(ctx context.Context, email, code, newPassword string) models.Envelope[bool] {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return fail[bool]("reset_password", validationError("email and code are required"))
	}
	if len(newPassword) < minPasswordLength {
		return fail[bool]("reset_password",
			validationError("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[bool]("reset_password", errInvalidCode)
		}
		return fail[bool]("reset_password", err)
	}
	if err := s.checkOtp(ctx, user.Id, models.OtpPasswordReset, code); err != nil {
		return fail[bool]("reset_password", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fail[bool]("reset_password", fmt.Errorf("hash password: %w", err))
	}
	if err := s.store.ConsumePasswordResetOtp(ctx, user.Id, passwordHash); err != nil {
		return fail[bool]("reset_password", err)
	}
	resetAttempts(ctx, s.loginLimiter, "login:"+email)

	s.notifier.InApp(models.Notification{
		UserId:  user.Id,
		Type:    "security",
		Title:   "Password Changed",
		Message: "Your password was reset. All sessions have been signed out.",
		Icon:    "key",
	})
	return models.Ok(true, "Password updated")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
