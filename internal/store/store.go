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

package store

import (
	"context"
	"errors"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyProcessed       = errors.New("entry already processed")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrEmailTaken             = errors.New("email already registered")
	ErrOtpAlreadyUsed         = errors.New("otp already used")
	ErrOtpAttemptRejected     = errors.New("otp attempt rejected")
)

// CreateUserParams contains the parameters for registering a user.
// Hashes are produced by the caller; the store never sees plaintext secrets.
type CreateUserParams struct {
	Id                string
	Email             string
	Name              string
	PasswordHash      string
	WithdrawalPinHash string
	TaxCodePinHash    string
	IsAdmin           bool
	EmailVerified     bool
}

// CreateDepositParams contains the parameters for a pending deposit
type CreateDepositParams struct {
	Id     string
	UserId string
	Symbol string
	Amount decimal.Decimal
	Value  decimal.Decimal
	TxHash string
}

// EscrowWithdrawalParams contains the parameters for a pending withdrawal.
// Amount+Fee moves from the holding balance into escrow.
type EscrowWithdrawalParams struct {
	Id      string
	UserId  string
	Symbol  string
	Amount  decimal.Decimal
	Fee     decimal.Decimal
	Address string
	Network string
}

// DepositApprovalResult is the committed state after a deposit approval
type DepositApprovalResult struct {
	User    *models.User
	Deposit *models.Deposit
}

// WithdrawalResult is the committed state after a withdrawal decision
type WithdrawalResult struct {
	Holding    *models.Holding
	Withdrawal *models.Withdrawal
}

// Store defines the persistence contract of the lifecycle engine.
// Every mutating method commits or rolls back as one unit.
type Store interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserSecrets(ctx context.Context, userId string) (*models.UserSecrets, error)
	SetPins(ctx context.Context, userId, withdrawalPinHash, taxCodePinHash string) error

	// --- Holdings ---
	GetHoldings(ctx context.Context, userId string) ([]models.Holding, error)
	GetHolding(ctx context.Context, userId, symbol string) (*models.Holding, error)
	CreditHolding(ctx context.Context, userId, symbol string, amount decimal.Decimal, reference string) (*models.Holding, error)

	// --- Deposits ---
	CreateDeposit(ctx context.Context, params CreateDepositParams) (*models.Deposit, error)
	GetDeposit(ctx context.Context, userId, depositId string) (*models.Deposit, error)
	ApproveDeposit(ctx context.Context, userId, depositId string, confirmations int) (*DepositApprovalResult, error)
	RejectDeposit(ctx context.Context, userId, depositId, reason string) (*models.Deposit, error)
	ListDeposits(ctx context.Context, userId string) ([]models.Deposit, error)
	ListPendingDeposits(ctx context.Context) ([]models.Deposit, error)

	// --- Withdrawals ---
	EscrowWithdrawal(ctx context.Context, params EscrowWithdrawalParams) (*WithdrawalResult, error)
	GetWithdrawal(ctx context.Context, userId, withdrawalId string) (*models.Withdrawal, error)
	ClaimWithdrawal(ctx context.Context, userId, withdrawalId string) (*models.Withdrawal, error)
	ReleaseWithdrawal(ctx context.Context, userId, withdrawalId string) error
	CompleteWithdrawal(ctx context.Context, userId, withdrawalId, txHash string) (*WithdrawalResult, error)
	RefundWithdrawal(ctx context.Context, userId, withdrawalId, reason string) (*WithdrawalResult, error)
	ListWithdrawals(ctx context.Context, userId string) ([]models.Withdrawal, error)
	ListPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error)

	// --- One-time codes ---
	GetOtpSlot(ctx context.Context, userId string) (*models.OtpSlot, error)
	StoreOtp(ctx context.Context, userId, codeHash, otpType string, expiresAt time.Time) error
	ClaimOtpAttempt(ctx context.Context, userId, codeHash string, maxAttempts int) (int, error)
	ConsumeEmailOtp(ctx context.Context, userId string) (*models.User, error)
	ConsumePasswordResetOtp(ctx context.Context, userId, passwordHash string) error

	// --- Sessions ---
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// --- Notifications ---
	InsertNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, userId string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userId, notificationId string) error

	// --- Payment configuration ---
	ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) error
	ListPaymentMethods(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error)

	// --- Audit ---
	GetTransactionHistory(ctx context.Context, userId, asset string, limit, offset int) ([]models.Transaction, error)
	ReconcileUserBalance(ctx context.Context, userId, asset string) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
