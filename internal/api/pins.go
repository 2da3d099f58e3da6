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

	"wallet-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// PIN kinds
const (
	PinTaxCode    = "tax_code"
	PinWithdrawal = "withdrawal"
)

var errInvalidPin = newError(CodeInvalidPin, "invalid PIN")

func (s *LedgerService) ValidateTaxCodePin(ctx context.Context, token, pin string) models.Envelope[bool] {
	return s.validatePin(ctx, token, PinTaxCode, pin)
}

func (s *LedgerService) ValidateWithdrawalPin(ctx context.Context, token, pin string) models.Envelope[bool] {
	return s.validatePin(ctx, token, PinWithdrawal, pin)
}

func (s *LedgerService) validatePin(ctx context.Context, token, kind, pin string) models.Envelope[bool] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[bool]("validate_pin", err)
	}
	if err := s.verifyPin(ctx, principal.UserId, kind, pin); err != nil {
		env := fail[bool]("validate_pin", err)
		if env.Code == CodeInvalidPin {
			invalid := false
			env.Data = &invalid
		}
		return env
	}
	return models.Ok(true, "PIN verified")
}

// verifyPin checks one PIN under the attempt limit of its kind. A correct
// PIN clears the counter.
func (s *LedgerService) verifyPin(ctx context.Context, userId, kind, pin string) error {
	key := fmt.Sprintf("pin:%s:%s", kind, userId)
	if err := checkAttempt(ctx, s.pinLimiter, key, s.now()); err != nil {
		return err
	}

	secrets, err := s.store.GetUserSecrets(ctx, userId)
	if err != nil {
		return err
	}
	stored := secrets.WithdrawalPinHash
	if kind == PinTaxCode {
		stored = secrets.TaxCodePinHash
	}

	ok, err := s.hasher.Verify(pin, stored)
	if err != nil {
		return fmt.Errorf("verify %s pin: %w", kind, err)
	}
	if !ok {
		zap.L().Info("PIN mismatch", zap.String("user_id", userId), zap.String("kind", kind))
		return errInvalidPin
	}

	resetAttempts(ctx, s.pinLimiter, key)
	return nil
}
