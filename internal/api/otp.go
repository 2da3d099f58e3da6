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

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/notify"
	"wallet-lifecycle-go/internal/security"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

var (
	errInvalidCode = newError(CodeInvalidCode, "invalid verification code")
	errOtpExpired  = newError(CodeExpired, "verification code has expired")
	errOtpUsed     = newError(CodeAlreadyUsed, "verification code has already been used")
	errOtpLocked   = newError(CodeTooManyAttempts, "too many attempts, request a new code")
)

// IssueEmailOtp sends a fresh email verification code, replacing any
// outstanding code.
func (s *LedgerService) IssueEmailOtp(ctx context.Context, token string) models.Envelope[bool] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[bool]("issue_email_otp", err)
	}
	user, err := s.store.GetUserById(ctx, principal.UserId)
	if err != nil {
		return fail[bool]("issue_email_otp", err)
	}
	if user.EmailVerified {
		return fail[bool]("issue_email_otp", validationError("email is already verified"))
	}
	if err := s.issueOtp(ctx, user, models.OtpEmailVerification); err != nil {
		return fail[bool]("issue_email_otp", err)
	}
	return models.Ok(true, "Verification code sent")
}

// VerifyEmailOtp consumes the code and marks the email verified
func (s *LedgerService) VerifyEmailOtp(ctx context.Context, token, code string) models.Envelope[models.UserSummary] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[models.UserSummary]("verify_email_otp", err)
	}
	if err := s.checkOtp(ctx, principal.UserId, models.OtpEmailVerification, code); err != nil {
		return fail[models.UserSummary]("verify_email_otp", err)
	}

	user, err := s.store.ConsumeEmailOtp(ctx, principal.UserId)
	if err != nil {
		return fail[models.UserSummary]("verify_email_otp", err)
	}

	s.notifier.InApp(models.Notification{
		UserId:  user.Id,
		Type:    "security",
		Title:   "Email Verified",
		Message: "Your email address has been verified.",
		Icon:    "shield-check",
	})
	return models.Ok(user.Summary(), "Email verified")
}

func (s *LedgerService) issueOtp(ctx context.Context, user *models.User, otpType string) error {
	code, err := security.RandomCode(s.settings.OtpDigits)
	if err != nil {
		return err
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	expiresAt := s.now().Add(s.settings.OtpTtl)
	if err := s.store.StoreOtp(ctx, user.Id, codeHash, otpType, expiresAt); err != nil {
		return err
	}

	zap.L().Info("OTP issued",
		zap.String("user_id", user.Id),
		zap.String("type", otpType),
		zap.Time("expires_at", expiresAt))

	s.notifier.Email(user.Email, notify.TemplateOtp, notify.OtpMail{
		Name:         user.Name,
		Purpose:      notify.Title(otpType),
		Code:         code,
		ValidMinutes: int(s.settings.OtpTtl.Minutes()),
	})
	return nil
}

// checkOtp walks the slot state machine: no active code of the type,
// used, expired, locked, then the code itself. The attempt is claimed
// before the hash is checked; nothing here consumes the slot.
func (s *LedgerService) checkOtp(ctx context.Context, userId, otpType, code string) error {
	slot, err := s.store.GetOtpSlot(ctx, userId)
	if err != nil {
		return err
	}
	if err := s.otpState(slot, otpType); err != nil {
		return err
	}

	attempts, err := s.store.ClaimOtpAttempt(ctx, userId, slot.CodeHash, s.settings.OtpMaxAttempts)
	if errors.Is(err, store.ErrOtpAttemptRejected) {
		// Lost a race with another guess, a reissue or a consume.
		current, err := s.store.GetOtpSlot(ctx, userId)
		if err != nil {
			return err
		}
		if current.CodeHash != slot.CodeHash {
			return errInvalidCode
		}
		if err := s.otpState(current, otpType); err != nil {
			return err
		}
		return errOtpLocked
	}
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(code, slot.CodeHash)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		zap.L().Info("OTP mismatch",
			zap.String("user_id", userId),
			zap.String("type", otpType),
			zap.Int("attempts", attempts))
		return errInvalidCode
	}
	return nil
}

func (s *LedgerService) otpState(slot *models.OtpSlot, otpType string) error {
	switch {
	case !slot.Active() || slot.Type != otpType:
		return errInvalidCode
	case slot.IsUsed:
		return errOtpUsed
	case !s.now().Before(slot.ExpiresAt):
		return errOtpExpired
	case slot.Attempts >= s.settings.OtpMaxAttempts:
		return errOtpLocked
	}
	return nil
}
