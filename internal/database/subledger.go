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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Audit transaction types
const (
	TxTypeDepositApproved   = "deposit_approved"
	TxTypeWithdrawalEscrow  = "withdrawal_escrow"
	TxTypeWithdrawalRelease = "withdrawal_release"
	TxTypeWithdrawalRefund  = "withdrawal_refund"
	TxTypeAdjustment        = "adjustment"
)

// WalletAsset is the audit asset name of the scalar wallet balance
const WalletAsset = "WALLET"

const escrowSuffix = ":escrow"

// EscrowAsset is the audit asset name of the escrowed part of a holding
func EscrowAsset(symbol string) string {
	return symbol + escrowSuffix
}

// SubledgerService records the immutable audit trail of every balance mutation
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

func (s *SubledgerService) InitSchema() error {
	schema := `
	-- Transactions Table (Audit Trail)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		reference TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_asset ON transactions(user_id, asset);
	CREATE INDEX IF NOT EXISTS idx_transactions_reference ON transactions(reference);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_transaction_id ON journal_entries(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordParams describes one balance movement inside an open transaction
type RecordParams struct {
	UserId          string
	Asset           string
	TransactionType string
	Amount          decimal.Decimal
	BalanceBefore   decimal.Decimal
	Reference       string
	Now             time.Time
}

// Record writes the audit row and its journal entries using the caller's
// transaction, so the audit trail commits or rolls back with the mutation.
func (s *SubledgerService) Record(ctx context.Context, tx *sql.Tx, params RecordParams) (*models.Transaction, error) {
	var existingTxId string
	err := tx.QueryRowContext(ctx, queryCheckDuplicateReference, params.Reference, params.Asset, params.TransactionType).Scan(&existingTxId)
	if err == nil {
		zap.L().Warn("Duplicate audit reference detected",
			zap.String("reference", params.Reference),
			zap.String("type", params.TransactionType),
			zap.String("existing_tx_id", existingTxId))
		return nil, fmt.Errorf("%w: %s %s already recorded", store.ErrDuplicateTransaction, params.TransactionType, params.Reference)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	transaction := &models.Transaction{
		Id:              uuid.New().String(),
		UserId:          params.UserId,
		Asset:           params.Asset,
		TransactionType: params.TransactionType,
		Amount:          params.Amount,
		BalanceBefore:   params.BalanceBefore,
		BalanceAfter:    params.BalanceBefore.Add(params.Amount),
		Reference:       params.Reference,
		CreatedAt:       params.Now,
	}

	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.UserId, transaction.Asset, transaction.TransactionType,
		transaction.Amount.String(), transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		transaction.Reference, transaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := s.addJournalEntries(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	zap.L().Debug("Audit transaction recorded",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", transaction.UserId),
		zap.String("asset", transaction.Asset),
		zap.String("type", transaction.TransactionType),
		zap.String("balance_before", transaction.BalanceBefore.String()),
		zap.String("balance_after", transaction.BalanceAfter.String()))

	return transaction, nil
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// addJournalEntries creates the balanced double-entry pair for a movement.
// A positive amount debits the user account and credits the counterparty.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	symbol := strings.TrimSuffix(transaction.Asset, escrowSuffix)
	userAccount := fmt.Sprintf("%s_%s", transaction.UserId, transaction.Asset)

	var counterType, counterId string
	switch transaction.TransactionType {
	case TxTypeDepositApproved:
		counterType, counterId = "system_liability", "user_deposits_"+symbol
	case TxTypeWithdrawalEscrow, TxTypeWithdrawalRefund:
		counterType, counterId = "internal_transfer", "escrow_"+symbol
	case TxTypeWithdrawalRelease:
		counterType, counterId = "system_liability", "user_withdrawals_"+symbol
	default:
		counterType, counterId = "system_liability", "adjustments_"+symbol
	}

	amount := transaction.Amount.Abs()
	user := journalEntry{accountType: "user_asset", accountId: userAccount}
	counter := journalEntry{accountType: counterType, accountId: counterId}
	if transaction.Amount.IsNegative() {
		user.creditAmount, counter.debitAmount = amount, amount
	} else {
		user.debitAmount, counter.creditAmount = amount, amount
	}

	for _, entry := range []journalEntry{user, counter} {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transaction.Id, entry.accountType, entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String(), transaction.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}
