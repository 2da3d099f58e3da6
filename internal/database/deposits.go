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

	"go.uber.org/zap"
)

func scanDeposit(row rowScanner) (*models.Deposit, error) {
	var d models.Deposit
	var approvedAt, rejectedAt sql.NullTime
	err := row.Scan(&d.Id, &d.UserId, &d.Symbol, &d.Amount, &d.Value, &d.Status, &d.Confirmations, &d.TxHash,
		&d.Date, &approvedAt, &rejectedAt, &d.RejectionReason)
	if err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		d.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		d.RejectedAt = &rejectedAt.Time
	}
	return &d, nil
}

func (s *Service) queryDeposits(ctx context.Context, query string, args ...any) ([]models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer closeRows(rows)

	deposits := []models.Deposit{}
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit rows: %w", err)
	}
	return deposits, nil
}

func (s *Service) CreateDeposit(ctx context.Context, params store.CreateDepositParams) (*models.Deposit, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, queryInsertDeposit,
		params.Id, params.UserId, params.Symbol, params.Amount.String(), params.Value.String(), params.TxHash, now)
	if err != nil {
		zap.L().Error("Failed to insert deposit", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert deposit: %w", err)
	}

	zap.L().Info("Deposit created",
		zap.String("deposit_id", params.Id),
		zap.String("user_id", params.UserId),
		zap.String("symbol", params.Symbol),
		zap.String("amount", params.Amount.String()),
		zap.String("value", params.Value.String()))
	return s.GetDeposit(ctx, params.UserId, params.Id)
}

func (s *Service) GetDeposit(ctx context.Context, userId, depositId string) (*models.Deposit, error) {
	d, err := scanDeposit(s.db.QueryRowContext(ctx, queryGetDeposit, userId, depositId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("deposit %s: %w", depositId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

func (s *Service) ListDeposits(ctx context.Context, userId string) ([]models.Deposit, error) {
	return s.queryDeposits(ctx, queryListDeposits, userId)
}

func (s *Service) ListPendingDeposits(ctx context.Context) ([]models.Deposit, error) {
	return s.queryDeposits(ctx, queryListPendingDeposits)
}

// transitionError explains why a pending-only status update touched no row
func transitionError(ctx context.Context, tx *sql.Tx, query, userId, entryId, kind string) error {
	var status string
	err := tx.QueryRowContext(ctx, query, userId, entryId).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, entryId, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s status: %w", kind, err)
	}
	return fmt.Errorf("%s %s is %s: %w", kind, entryId, status, store.ErrAlreadyProcessed)
}

// ApproveDeposit completes a pending deposit and credits its value to the
// user's wallet balance and deposit total in a single transaction.
func (s *Service) ApproveDeposit(ctx context.Context, userId, depositId string, confirmations int) (*store.DepositApprovalResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryCompleteDeposit, confirmations, now, userId, depositId)
	if err != nil {
		return nil, fmt.Errorf("failed to complete deposit: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return nil, transitionError(ctx, tx, queryDepositStatus, userId, depositId, "deposit")
	}

	deposit, err := scanDeposit(tx.QueryRowContext(ctx, queryGetDeposit, userId, depositId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload deposit: %w", err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	before := user.WalletBalance
	user.WalletBalance = user.WalletBalance.Add(deposit.Value)
	user.TotalDeposited = user.TotalDeposited.Add(deposit.Value)
	if err := updateUserTotals(ctx, tx, user, now); err != nil {
		return nil, err
	}

	if _, err := s.subledger.Record(ctx, tx, RecordParams{
		UserId:          userId,
		Asset:           WalletAsset,
		TransactionType: TxTypeDepositApproved,
		Amount:          deposit.Value,
		BalanceBefore:   before,
		Reference:       depositId,
		Now:             now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Deposit approved",
		zap.String("deposit_id", depositId),
		zap.String("user_id", userId),
		zap.String("value", deposit.Value.String()),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", user.WalletBalance.String()))

	return &store.DepositApprovalResult{User: user, Deposit: deposit}, nil
}

// RejectDeposit marks a pending deposit failed; balances are untouched
func (s *Service) RejectDeposit(ctx context.Context, userId, depositId, reason string) (*models.Deposit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, queryFailDeposit, time.Now().UTC(), reason, userId, depositId)
	if err != nil {
		return nil, fmt.Errorf("failed to reject deposit: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return nil, transitionError(ctx, tx, queryDepositStatus, userId, depositId, "deposit")
	}

	deposit, err := scanDeposit(tx.QueryRowContext(ctx, queryGetDeposit, userId, depositId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Deposit rejected",
		zap.String("deposit_id", depositId),
		zap.String("user_id", userId),
		zap.String("reason", reason))
	return deposit, nil
}
