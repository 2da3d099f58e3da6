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
	"fmt"
	"strings"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/security"
	"wallet-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewUser is the input of RegisterUser
type NewUser struct {
	Email    string
	Name     string
	Password string
	IsAdmin  bool
	Verified bool
}

// Registration is the created user plus its generated PINs. The PINs are
// returned once and only their hashes are stored.
type Registration struct {
	User          *models.User
	WithdrawalPin string
	TaxCodePin    string
}

// RegisterUser creates a user with hashed secrets. Operator tooling only;
// it is not exposed over HTTP.
func (s *LedgerService) RegisterUser(ctx context.Context, in NewUser) (*Registration, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, validationError("name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	withdrawalPin, err := security.RandomCode(6)
	if err != nil {
		return nil, err
	}
	taxCodePin, err := security.RandomCode(6)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, 3)
	for _, secret := range []string{in.Password, withdrawalPin, taxCodePin} {
		h, err := s.hasher.Hash(secret)
		if err != nil {
			return nil, fmt.Errorf("hash secret: %w", err)
		}
		hashes = append(hashes, h)
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		Id:                uuid.New().String(),
		Email:             email,
		Name:              name,
		PasswordHash:      hashes[0],
		WithdrawalPinHash: hashes[1],
		TaxCodePinHash:    hashes[2],
		IsAdmin:           in.IsAdmin,
		EmailVerified:     in.Verified,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User registered",
		zap.String("user_id", user.Id),
		zap.String("email", user.Email),
		zap.Bool("is_admin", user.IsAdmin))

	return &Registration{User: user, WithdrawalPin: withdrawalPin, TaxCodePin: taxCodePin}, nil
}
