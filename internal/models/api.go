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

// Envelope is the uniform result shape of every public procedure.
// Code carries the machine-readable error kind when Success is false.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Ok builds a successful envelope
func Ok[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data, Message: message}
}

// Fail builds a failed envelope
func Fail[T any](code, errMsg string) Envelope[T] {
	return Envelope[T]{Success: false, Error: errMsg, Code: code}
}

// UserSummary is the public view of a user
type UserSummary struct {
	Id            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IsAdmin       bool   `json:"is_admin"`
	EmailVerified bool   `json:"email_verified"`
}

// Summary returns the public view of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		Id:            u.Id,
		Email:         u.Email,
		Name:          u.Name,
		IsAdmin:       u.IsAdmin,
		EmailVerified: u.EmailVerified,
	}
}

// SessionView is returned by login
type SessionView struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// WalletView is the user's financial state
type WalletView struct {
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Holdings       []Holding       `json:"holdings"`
}

// WithdrawalRequest is the user input of a withdrawal submission
type WithdrawalRequest struct {
	Symbol        string          `json:"symbol"`
	Amount        decimal.Decimal `json:"amount"`
	Address       string          `json:"address"`
	Network       string          `json:"network"`
	Fee           decimal.Decimal `json:"fee"`
	TaxCodePin    string          `json:"tax_code_pin"`
	WithdrawalPin string          `json:"withdrawal_pin"`
}

// DepositRequest is the user input of a deposit submission
type DepositRequest struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"value"`
	TxHash string          `json:"tx_hash"`
}

// DepositApproval is the result of approving a deposit
type DepositApproval struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	Deposit    Deposit         `json:"deposit"`
}

// WithdrawalApproval is the result of approving a withdrawal.
// NewBalance is the spendable balance of the withdrawn holding.
type WithdrawalApproval struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	Withdrawal Withdrawal      `json:"withdrawal"`
}

// PendingEntries lists everything awaiting an admin decision
type PendingEntries struct {
	Deposits    []Deposit    `json:"deposits"`
	Withdrawals []Withdrawal `json:"withdrawals"`
}

// Principal is the authenticated caller resolved from a session token
type Principal struct {
	UserId  string
	Email   string
	Name    string
	IsAdmin bool
	Token   string
}
