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

package formance

import (
	"errors"
	"fmt"
	"strings"

	"wallet-lifecycle-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ErrNotRepresentable marks an amount with more decimals than its asset
var ErrNotRepresentable = errors.New("amount not representable in asset units")

// Account layout:
//   @users:$user_id:holdings   spendable portfolio holding
//   @users:$user_id:escrow     funds reserved by pending withdrawals
//   @users:$user_id:wallet     fiat-valued wallet balance credited by deposits
//   @withdrawals:completed     funds paid out through the rail
//   @platform:fees             withdrawal fees
// User sources allow overdraft so a mirror enabled late never blocks.

const numscriptEscrow = `vars {
  asset $asset
  number $amount
  account $user_id
  string $entry_id
}

send [$asset $amount] (
  source = @users:$user_id:holdings allowing unbounded overdraft
  destination = @users:$user_id:escrow
)

set_tx_meta("event_type", "withdrawal_escrowed")
set_tx_meta("entry_id", $entry_id)
`

const numscriptRelease = `vars {
  asset $asset
  number $amount
  number $fee
  account $user_id
  string $entry_id
  string $tx_hash
}

send [$asset $amount] (
  source = @users:$user_id:escrow allowing unbounded overdraft
  destination = @withdrawals:completed
)

send [$asset $fee] (
  source = @users:$user_id:escrow allowing unbounded overdraft
  destination = @platform:fees
)

set_tx_meta("event_type", "withdrawal_released")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("tx_hash", $tx_hash)
`

const numscriptRefund = `vars {
  asset $asset
  number $amount
  account $user_id
  string $entry_id
}

send [$asset $amount] (
  source = @users:$user_id:escrow allowing unbounded overdraft
  destination = @users:$user_id:holdings
)

set_tx_meta("event_type", "withdrawal_refunded")
set_tx_meta("entry_id", $entry_id)
`

const numscriptDepositCredit = `vars {
  asset $asset
  number $amount
  account $user_id
  string $entry_id
  string $deposit_symbol
}

send [$asset $amount] (
  source = @world
  destination = @users:$user_id:wallet
)

set_tx_meta("event_type", "deposit_approved")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("deposit_symbol", $deposit_symbol)
`

const numscriptAdjustment = `vars {
  asset $asset
  number $amount
  account $user_id
  string $entry_id
}

send [$asset $amount] (
  source = @world
  destination = @users:$user_id:holdings
)

set_tx_meta("event_type", "holding_credited")
set_tx_meta("entry_id", $entry_id)
`

// walletAsset is the unit of the deposit-credited wallet balance
const walletAsset = "USD"

// buildTransaction maps an event to its Numscript posting. Events that do
// not move value (submitted, rejected deposits) return nil. Amounts finer
// than the asset precision are refused rather than truncated.
func buildTransaction(event models.LifecycleEvent) (*shared.V2PostTransaction, error) {
	symbol := strings.ToUpper(event.Symbol)
	vars := map[string]string{
		"user_id":  event.UserId,
		"entry_id": event.EntryId,
	}

	var script string
	var amounts map[string]decimal.Decimal
	unit := symbol
	switch event.Type {
	case models.EventWithdrawalEscrowed:
		script = numscriptEscrow
		amounts = map[string]decimal.Decimal{"amount": event.Amount.Add(event.Fee)}
	case models.EventWithdrawalReleased:
		script = numscriptRelease
		amounts = map[string]decimal.Decimal{"amount": event.Amount, "fee": event.Fee}
		vars["tx_hash"] = event.TxHash
	case models.EventWithdrawalRefunded:
		script = numscriptRefund
		amounts = map[string]decimal.Decimal{"amount": event.Amount.Add(event.Fee)}
	case models.EventDepositApproved:
		script = numscriptDepositCredit
		unit = walletAsset
		amounts = map[string]decimal.Decimal{"amount": event.Amount}
		vars["deposit_symbol"] = symbol
	case models.EventHoldingCredited:
		script = numscriptAdjustment
		amounts = map[string]decimal.Decimal{"amount": event.Amount}
	default:
		return nil, nil
	}

	vars["asset"] = formanceAsset(unit)
	for name, amount := range amounts {
		units, err := smallestUnits(amount, unit)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", event.Type, name, err)
		}
		vars[name] = units
	}

	tx := &shared.V2PostTransaction{
		Reference: strPtr(event.Reference()),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars:  vars,
		},
	}
	if !event.OccurredAt.IsZero() {
		ts := event.OccurredAt.UTC()
		tx.Timestamp = &ts
	}
	return tx, nil
}

// smallestUnits converts a decimal amount into integer units of the asset
func smallestUnits(amount decimal.Decimal, symbol string) (string, error) {
	precision := precisionFor(symbol)
	shifted := amount.Shift(int32(precision))
	if !shifted.IsInteger() {
		return "", fmt.Errorf("%s %s exceeds precision %d: %w", amount, symbol, precision, ErrNotRepresentable)
	}
	return shifted.BigInt().String(), nil
}
