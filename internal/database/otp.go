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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetOtpSlot(ctx context.Context, userId string) (*models.OtpSlot, error) {
	var slot models.OtpSlot
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, queryGetOtpSlot, userId).Scan(
		&slot.UserId, &slot.CodeHash, &slot.Type, &expiresAt, &slot.Attempts, &slot.IsUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get otp slot: %w", err)
	}
	if expiresAt.Valid {
		slot.ExpiresAt = expiresAt.Time
	}
	return &slot, nil
}

// StoreOtp overwrites the user's single OTP slot with a fresh code
func (s *Service) StoreOtp(ctx context.Context, userId, codeHash, otpType string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx, queryStoreOtp, codeHash, otpType, expiresAt.UTC(), time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if err := checkAffected(result, store.ErrNotFound); err != nil {
		return fmt.Errorf("user %s: %w", userId, err)
	}
	zap.L().Info("OTP issued", zap.String("user_id", userId), zap.String("type", otpType), zap.Time("expires_at", expiresAt))
	return nil
}

// ClaimOtpAttempt counts one guess against the slot holding codeHash and
// returns the new attempt count. It fails with ErrOtpAttemptRejected once
// the slot is used, replaced or at maxAttempts, so concurrent guesses can
// never exceed the cap.
func (s *Service) ClaimOtpAttempt(ctx context.Context, userId, codeHash string, maxAttempts int) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx, queryClaimOtpAttempt, userId, codeHash, maxAttempts).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("user %s: %w", userId, store.ErrOtpAttemptRejected)
		}
		return 0, fmt.Errorf("failed to claim otp attempt: %w", err)
	}
	return attempts, nil
}

// ConsumeEmailOtp marks the code used and the email verified in one
// statement; only the first of several concurrent callers succeeds.
func (s *Service) ConsumeEmailOtp(ctx context.Context, userId string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, queryConsumeEmailOtp, time.Now().UTC(), userId)
	if err != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}
	if err := checkAffected(result, store.ErrOtpAlreadyUsed); err != nil {
		return nil, fmt.Errorf("user %s: %w", userId, err)
	}
	zap.L().Info("Email verified", zap.String("user_id", userId))
	return s.GetUserById(ctx, userId)
}

// ConsumePasswordResetOtp marks the code used, stores the new password hash
// and revokes every session of the user.
func (s *Service) ConsumePasswordResetOtp(ctx context.Context, userId, passwordHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, queryConsumeResetOtp, passwordHash, time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if err := checkAffected(result, store.ErrOtpAlreadyUsed); err != nil {
		return fmt.Errorf("user %s: %w", userId, err)
	}
	if _, err := tx.ExecContext(ctx, queryDeleteUserSessions, userId); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	zap.L().Info("Password reset", zap.String("user_id", userId))
	return nil
}
