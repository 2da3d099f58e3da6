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

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var txHash sql.NullString
	var approvedAt, rejectedAt sql.NullTime
	err := row.Scan(&w.Id, &w.UserId, &w.Symbol, &w.Amount, &w.Address, &w.Network, &w.Fee, &w.Status, &txHash,
		&w.Date, &approvedAt, &rejectedAt, &w.RejectionReason)
	if err != nil {
		return nil, err
	}
	if txHash.Valid {
		w.TxHash = &txHash.String
	}
	if approvedAt.Valid {
		w.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		w.RejectedAt = &rejectedAt.Time
	}
	return &w, nil
}

func (s *Service) queryWithdrawals(ctx context.Context, query string, args ...any) ([]models.Withdrawal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer closeRows(rows)

	withdrawals := []models.Withdrawal{}
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return withdrawals, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, userId, withdrawalId string) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, userId, withdrawalId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawalId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, userId string) ([]models.Withdrawal, error) {
	return s.queryWithdrawals(ctx, queryListWithdrawals, userId)
}

func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return s.queryWithdrawals(ctx, queryListPendingWithdrawals)
}

// EscrowWithdrawal moves amount+fee from the holding's spendable balance
// into escrow and records the pending withdrawal, all in one transaction.
func (s *Service) EscrowWithdrawal(ctx context.Context, params store.EscrowWithdrawalParams) (*store.WithdrawalResult, error) {
	total := params.Amount.Add(params.Fee)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	h, err := loadHoldingTx(ctx, tx, params.UserId, params.Symbol, false, now)
	if err != nil {
		return nil, err
	}
	if h.Balance.LessThan(total) {
		zap.L().Info("Withdrawal rejected for insufficient balance",
			zap.String("user_id", params.UserId),
			zap.String("symbol", params.Symbol),
			zap.String("balance", h.Balance.String()),
			zap.String("required", total.String()))
		return nil, fmt.Errorf("balance %s below %s: %w", h.Balance, total, store.ErrInsufficientBalance)
	}

	balanceBefore, escrowBefore := h.Balance, h.Escrowed
	h.Balance = h.Balance.Sub(total)
	h.Escrowed = h.Escrowed.Add(total)
	if err := saveHoldingTx(ctx, tx, h, now); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, queryInsertWithdrawal,
		params.Id, params.UserId, params.Symbol, params.Amount.String(), params.Address, params.Network,
		params.Fee.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	for _, rec := range []RecordParams{
		{Asset: params.Symbol, Amount: total.Neg(), BalanceBefore: balanceBefore},
		{Asset: EscrowAsset(params.Symbol), Amount: total, BalanceBefore: escrowBefore},
	} {
		rec.UserId, rec.TransactionType, rec.Reference, rec.Now = params.UserId, TxTypeWithdrawalEscrow, params.Id, now
		if _, err := s.subledger.Record(ctx, tx, rec); err != nil {
			return nil, err
		}
	}

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, params.UserId, params.Id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal escrowed",
		zap.String("withdrawal_id", params.Id),
		zap.String("user_id", params.UserId),
		zap.String("symbol", params.Symbol),
		zap.String("total", total.String()),
		zap.String("new_balance", h.Balance.String()),
		zap.String("escrowed", h.Escrowed.String()))

	return &store.WithdrawalResult{Holding: h, Withdrawal: withdrawal}, nil
}

// ClaimWithdrawal moves a pending withdrawal to processing so that no
// rejection can refund it while the payout is in flight.
func (s *Service) ClaimWithdrawal(ctx context.Context, userId, withdrawalId string) (*models.Withdrawal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, queryClaimWithdrawal, userId, withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to claim withdrawal: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return nil, transitionError(ctx, tx, queryWithdrawalStatus, userId, withdrawalId, "withdrawal")
	}

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, userId, withdrawalId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return withdrawal, nil
}

// ReleaseWithdrawal returns a claimed withdrawal to pending after a failed
// payout.
func (s *Service) ReleaseWithdrawal(ctx context.Context, userId, withdrawalId string) error {
	result, err := s.db.ExecContext(ctx, queryReleaseWithdrawal, userId, withdrawalId)
	if err != nil {
		return fmt.Errorf("failed to release withdrawal: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return fmt.Errorf("withdrawal %s is not processing: %w", withdrawalId, err)
	}
	return nil
}

// CompleteWithdrawal settles a claimed withdrawal: escrow is released and
// the user's withdrawal total grows by the amount.
func (s *Service) CompleteWithdrawal(ctx context.Context, userId, withdrawalId, txHash string) (*store.WithdrawalResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryCompleteWithdrawal, txHash, now, userId, withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to complete withdrawal: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return nil, transitionError(ctx, tx, queryWithdrawalStatus, userId, withdrawalId, "withdrawal")
	}

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, userId, withdrawalId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload withdrawal: %w", err)
	}
	total := withdrawal.Total()

	h, err := loadHoldingTx(ctx, tx, userId, withdrawal.Symbol, false, now)
	if err != nil {
		return nil, err
	}
	escrowBefore := h.Escrowed
	h.Escrowed = h.Escrowed.Sub(total)
	if err := saveHoldingTx(ctx, tx, h, now); err != nil {
		return nil, err
	}

	user, err := scanUser(tx.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.TotalWithdrawn = user.TotalWithdrawn.Add(withdrawal.Amount)
	if err := updateUserTotals(ctx, tx, user, now); err != nil {
		return nil, err
	}

	if _, err := s.subledger.Record(ctx, tx, RecordParams{
		UserId:          userId,
		Asset:           EscrowAsset(withdrawal.Symbol),
		TransactionType: TxTypeWithdrawalRelease,
		Amount:          total.Neg(),
		BalanceBefore:   escrowBefore,
		Reference:       withdrawalId,
		Now:             now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal completed",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("user_id", userId),
		zap.String("tx_hash", txHash),
		zap.String("released", total.String()),
		zap.String("total_withdrawn", user.TotalWithdrawn.String()))

	return &store.WithdrawalResult{Holding: h, Withdrawal: withdrawal}, nil
}

// RefundWithdrawal fails a pending withdrawal and returns the escrowed
// amount+fee to the holding's spendable balance.
func (s *Service) RefundWithdrawal(ctx context.Context, userId, withdrawalId, reason string) (*store.WithdrawalResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryFailWithdrawal, now, reason, userId, withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	if err := checkAffected(result, store.ErrAlreadyProcessed); err != nil {
		return nil, transitionError(ctx, tx, queryWithdrawalStatus, userId, withdrawalId, "withdrawal")
	}

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, userId, withdrawalId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload withdrawal: %w", err)
	}
	total := withdrawal.Total()

	h, err := loadHoldingTx(ctx, tx, userId, withdrawal.Symbol, false, now)
	if err != nil {
		return nil, err
	}
	balanceBefore, escrowBefore := h.Balance, h.Escrowed
	h.Escrowed = h.Escrowed.Sub(total)
	h.Balance = h.Balance.Add(total)
	if err := saveHoldingTx(ctx, tx, h, now); err != nil {
		return nil, err
	}

	for _, rec := range []RecordParams{
		{Asset: EscrowAsset(withdrawal.Symbol), Amount: total.Neg(), BalanceBefore: escrowBefore},
		{Asset: withdrawal.Symbol, Amount: total, BalanceBefore: balanceBefore},
	} {
		rec.UserId, rec.TransactionType, rec.Reference, rec.Now = userId, TxTypeWithdrawalRefund, withdrawalId, now
		if _, err := s.subledger.Record(ctx, tx, rec); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal rejected and refunded",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("user_id", userId),
		zap.String("refunded", total.String()),
		zap.String("new_balance", h.Balance.String()),
		zap.String("reason", reason))

	return &store.WithdrawalResult{Holding: h, Withdrawal: withdrawal}, nil
}
