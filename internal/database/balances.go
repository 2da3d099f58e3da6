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
	"time"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanHolding(row rowScanner) (*models.Holding, error) {
	var h models.Holding
	err := row.Scan(&h.UserId, &h.Symbol, &h.Balance, &h.Escrowed, &h.AvgBuyPrice, &h.Version, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHoldings returns all holdings of a user
func (s *Service) GetHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	zap.L().Debug("Getting holdings", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetHoldings, userId)
	if err != nil {
		zap.L().Error("Failed to get holdings", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer closeRows(rows)

	holdings := []models.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during holding row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}

	return holdings, nil
}

// GetHolding returns one holding; a missing row is a zero holding
func (s *Service) GetHolding(ctx context.Context, userId, symbol string) (*models.Holding, error) {
	h, err := scanHolding(s.db.QueryRowContext(ctx, queryGetHolding, userId, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Holding{UserId: userId, Symbol: symbol}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// loadHoldingTx reads a holding inside a transaction, creating an empty row
// when create is set and none exists.
func loadHoldingTx(ctx context.Context, tx *sql.Tx, userId, symbol string, create bool, now time.Time) (*models.Holding, error) {
	h, err := scanHolding(tx.QueryRowContext(ctx, queryGetHolding, userId, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		if !create {
			return &models.Holding{UserId: userId, Symbol: symbol}, nil
		}
		if _, err := tx.ExecContext(ctx, queryInsertHolding, userId, symbol, now); err != nil {
			return nil, fmt.Errorf("failed to create holding: %w", err)
		}
		return &models.Holding{UserId: userId, Symbol: symbol, Version: 1, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// saveHoldingTx writes balance and escrow with optimistic locking
func saveHoldingTx(ctx context.Context, tx *sql.Tx, h *models.Holding, now time.Time) error {
	if h.Balance.IsNegative() || h.Escrowed.IsNegative() {
		return fmt.Errorf("holding %s/%s would go negative: %w", h.UserId, h.Symbol, store.ErrInsufficientBalance)
	}
	result, err := tx.ExecContext(ctx, queryUpdateHolding, h.Balance.String(), h.Escrowed.String(), now, h.UserId, h.Symbol, h.Version)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if err := checkAffected(result, store.ErrConcurrentModification); err != nil {
		return fmt.Errorf("holding update failed - %w", err)
	}
	h.Version++
	h.UpdatedAt = now
	return nil
}

// CreditHolding adds amount to a holding's spendable balance (admin adjustment)
func (s *Service) CreditHolding(ctx context.Context, userId, symbol string, amount decimal.Decimal, reference string) (*models.Holding, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive, got %s", amount)
	}
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	h, err := loadHoldingTx(ctx, tx, userId, symbol, true, now)
	if err != nil {
		return nil, err
	}
	before := h.Balance
	h.Balance = h.Balance.Add(amount)
	if err := saveHoldingTx(ctx, tx, h, now); err != nil {
		return nil, err
	}

	if _, err := s.subledger.Record(ctx, tx, RecordParams{
		UserId:          userId,
		Asset:           symbol,
		TransactionType: TxTypeAdjustment,
		Amount:          amount,
		BalanceBefore:   before,
		Reference:       reference,
		Now:             now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Holding credited",
		zap.String("user_id", userId),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("new_balance", h.Balance.String()))
	return h, nil
}
