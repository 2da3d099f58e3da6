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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry statuses shared by deposits and withdrawals. Transitions are
// pending -> completed and pending -> failed. A withdrawal being paid out
// sits in processing until the rail answers, then moves to completed or
// back to pending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// OTP purposes. Only one OTP slot exists per user regardless of purpose.
const (
	OtpEmailVerification = "email_verification"
	OtpPasswordReset     = "password_reset"
)

// User represents a customer (or admin) and their scalar financial state
type User struct {
	Id             string          `db:"id"`
	Email          string          `db:"email"`
	Name           string          `db:"name"`
	PasswordHash   string          `db:"password_hash"`
	IsAdmin        bool            `db:"is_admin"`
	EmailVerified  bool            `db:"email_verified"`
	WalletBalance  decimal.Decimal `db:"wallet_balance"`
	TotalDeposited decimal.Decimal `db:"total_deposited"`
	TotalWithdrawn decimal.Decimal `db:"total_withdrawn"`
	Version        int64           `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// UserSecrets holds the hashed secrets of a user. Never serialized.
type UserSecrets struct {
	UserId            string
	PasswordHash      string
	WithdrawalPinHash string
	TaxCodePinHash    string
}

// OtpSlot is the single outstanding one-time code of a user
type OtpSlot struct {
	UserId    string
	CodeHash  string
	Type      string
	ExpiresAt time.Time
	Attempts  int
	IsUsed    bool
}

// Active reports whether a code has ever been issued into the slot.
func (o *OtpSlot) Active() bool {
	return o != nil && o.CodeHash != ""
}

// Holding is the per-symbol portfolio position of a user. Escrowed funds
// belong to pending withdrawals and are not spendable.
type Holding struct {
	UserId      string          `db:"user_id" json:"-"`
	Symbol      string          `db:"symbol" json:"symbol"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	Escrowed    decimal.Decimal `db:"escrowed" json:"escrowed"`
	AvgBuyPrice decimal.Decimal `db:"avg_buy_price" json:"avg_buy_price"`
	Version     int64           `db:"version" json:"-"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Deposit is one deposit entry
type Deposit struct {
	Id              string          `db:"id" json:"id"`
	UserId          string          `db:"user_id" json:"user_id"`
	Symbol          string          `db:"symbol" json:"symbol"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Value           decimal.Decimal `db:"value" json:"value"`
	Status          string          `db:"status" json:"status"`
	Confirmations   int             `db:"confirmations" json:"confirmations"`
	TxHash          string          `db:"tx_hash" json:"tx_hash,omitempty"`
	Date            time.Time       `db:"created_at" json:"date"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

// Withdrawal is one withdrawal entry. TxHash is nil until approved.
type Withdrawal struct {
	Id              string          `db:"id" json:"id"`
	UserId          string          `db:"user_id" json:"user_id"`
	Symbol          string          `db:"symbol" json:"symbol"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Address         string          `db:"address" json:"address"`
	Network         string          `db:"network" json:"network"`
	Fee             decimal.Decimal `db:"fee" json:"fee"`
	Status          string          `db:"status" json:"status"`
	TxHash          *string         `db:"tx_hash" json:"tx_hash"`
	Date            time.Time       `db:"created_at" json:"date"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

// Total is the amount removed from the holding for this withdrawal
func (w *Withdrawal) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// Notification is an in-app notification row
type Notification struct {
	Id        string            `db:"id" json:"id"`
	UserId    string            `db:"user_id" json:"-"`
	Type      string            `db:"type" json:"type"`
	Title     string            `db:"title" json:"title"`
	Message   string            `db:"message" json:"message"`
	Icon      string            `db:"icon" json:"icon,omitempty"`
	ActionUrl string            `db:"action_url" json:"action_url,omitempty"`
	IsRead    bool              `db:"is_read" json:"is_read"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	Metadata  map[string]string `db:"metadata" json:"metadata,omitempty"`
}

// Session maps an opaque token to a user
type Session struct {
	Token     string    `db:"token"`
	UserId    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// PaymentMethod is one entry of the admin payment configuration
type PaymentMethod struct {
	Id        string            `db:"id" json:"id"`
	Kind      string            `db:"kind" json:"kind"`
	Name      string            `db:"name" json:"name"`
	Symbol    string            `db:"symbol" json:"symbol,omitempty"`
	Network   string            `db:"network" json:"network,omitempty"`
	Address   string            `db:"address" json:"address,omitempty"`
	Details   map[string]string `db:"details" json:"details,omitempty"`
	IsActive  bool              `db:"is_active" json:"is_active"`
	SortOrder int               `db:"sort_order" json:"-"`
}

// Transaction represents immutable balance history (audit trail)
type Transaction struct {
	Id              string          `db:"id"`
	UserId          string          `db:"user_id"`
	Asset           string          `db:"asset"`
	TransactionType string          `db:"transaction_type"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Reference       string          `db:"reference"`
	CreatedAt       time.Time       `db:"created_at"`
}
