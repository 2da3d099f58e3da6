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

// Lifecycle event types published to the event sink and the ledger mirror
const (
	EventWithdrawalEscrowed = "withdrawal_escrowed"
	EventWithdrawalReleased = "withdrawal_released"
	EventWithdrawalRefunded = "withdrawal_refunded"
	EventDepositSubmitted   = "deposit_submitted"
	EventDepositApproved    = "deposit_approved"
	EventDepositRejected    = "deposit_rejected"
	EventHoldingCredited    = "holding_credited"
)

// LifecycleEvent describes a committed balance-affecting state change
type LifecycleEvent struct {
	Type       string          `json:"type"`
	UserId     string          `json:"user_id"`
	EntryId    string          `json:"entry_id"`
	Symbol     string          `json:"symbol"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Status     string          `json:"status"`
	TxHash     string          `json:"tx_hash,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Reference is the idempotency reference of the event in external systems
func (e LifecycleEvent) Reference() string {
	return e.EntryId + "-" + e.Type
}
