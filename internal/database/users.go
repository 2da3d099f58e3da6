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
	"strings"
	"time"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.Id, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin, &user.EmailVerified,
		&user.WalletBalance, &user.TotalDeposited, &user.TotalWithdrawn, &user.Version,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
		}
		zap.L().Error("Failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by email: %w", err)
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	zap.L().Info("Creating user", zap.String("id", params.Id), zap.String("email", params.Email))

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, queryInsertUser,
		params.Id, strings.ToLower(params.Email), params.Name, params.PasswordHash,
		params.WithdrawalPinHash, params.TaxCodePinHash, params.IsAdmin, params.EmailVerified, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, fmt.Errorf("%s: %w", params.Email, store.ErrEmailTaken)
		}
		zap.L().Error("Failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	zap.L().Info("User created successfully", zap.String("id", params.Id), zap.String("email", params.Email))
	return s.GetUserById(ctx, params.Id)
}

func (s *Service) GetUserSecrets(ctx context.Context, userId string) (*models.UserSecrets, error) {
	var secrets models.UserSecrets
	err := s.db.QueryRowContext(ctx, queryGetUserSecrets, userId).Scan(
		&secrets.UserId, &secrets.PasswordHash, &secrets.WithdrawalPinHash, &secrets.TaxCodePinHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query user secrets: %w", err)
	}
	return &secrets, nil
}

func (s *Service) SetPins(ctx context.Context, userId, withdrawalPinHash, taxCodePinHash string) error {
	result, err := s.db.ExecContext(ctx, queryUpdatePins, withdrawalPinHash, taxCodePinHash, time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("unable to update pins: %w", err)
	}
	if err := checkAffected(result, store.ErrNotFound); err != nil {
		return fmt.Errorf("user %s: %w", userId, err)
	}
	zap.L().Info("User PINs updated", zap.String("user_id", userId))
	return nil
}

// updateUserTotals writes the scalar financial fields guarded by the row version
func updateUserTotals(ctx context.Context, tx *sql.Tx, user *models.User, now time.Time) error {
	result, err := tx.ExecContext(ctx, queryUpdateUserTotals,
		user.WalletBalance.String(), user.TotalDeposited.String(), user.TotalWithdrawn.String(),
		now, user.Id, user.Version)
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}
	if err := checkAffected(result, store.ErrConcurrentModification); err != nil {
		return fmt.Errorf("user totals update failed - %w", err)
	}
	user.Version++
	user.UpdatedAt = now
	return nil
}
