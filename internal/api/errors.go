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
	"errors"
	"fmt"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/prime"
	"wallet-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

// Error codes carried in the envelope
const (
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeNotAuthorized       = "NOT_AUTHORIZED"
	CodeNotFound            = "NOT_FOUND"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidCode         = "INVALID_CODE"
	CodeExpired             = "EXPIRED"
	CodeAlreadyUsed         = "ALREADY_USED"
	CodeInvalidPin          = "INVALID_PIN"
	CodeAlreadyProcessed    = "ALREADY_PROCESSED"
	CodePersistenceError    = "PERSISTENCE_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	CodeRailError           = "RAIL_ERROR"
)

// Error is a failure with a code and a message that is safe to show
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	errNotAuthenticated = newError(CodeNotAuthenticated, "authentication required")
	errNotAuthorized    = newError(CodeNotAuthorized, "admin access required")
)

func validationError(format string, args ...any) *Error {
	return newError(CodeValidationError, fmt.Sprintf(format, args...))
}

// classify maps an internal error to its envelope code and public message
func classify(err error) (string, string) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code, apiErr.Message
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound, "not found"
	case errors.Is(err, store.ErrAlreadyProcessed):
		return CodeAlreadyProcessed, "entry has already been processed"
	case errors.Is(err, store.ErrInsufficientBalance):
		return CodeInsufficientBalance, "insufficient balance"
	case errors.Is(err, store.ErrOtpAlreadyUsed):
		return CodeAlreadyUsed, "code has already been used"
	case errors.Is(err, store.ErrEmailTaken):
		return CodeValidationError, "email already registered"
	case errors.Is(err, prime.ErrRail):
		return CodeRailError, "payment rail unavailable, entry left pending"
	default:
		return CodePersistenceError, "operation failed, no changes were made"
	}
}

// fail logs err and wraps it into a failed envelope. Persistence failures
// never leak their internal text.
func fail[T any](op string, err error) models.Envelope[T] {
	code, message := classify(err)
	switch code {
	case CodePersistenceError, CodeRailError:
		zap.L().Error("Operation failed", zap.String("op", op), zap.String("code", code), zap.Error(err))
	default:
		zap.L().Info("Operation rejected", zap.String("op", op), zap.String("code", code), zap.Error(err))
	}
	return models.Fail[T](code, message)
}
