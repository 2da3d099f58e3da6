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
	"context"
	"strings"

	"wallet-lifecycle-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *LedgerService) GetWallet(ctx context.Context, token string) models.Envelope[models.WalletView] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[models.WalletView]("get_wallet", err)
	}

	user, err := s.store.GetUserById(ctx, principal.UserId)
	if err != nil {
		return fail[models.WalletView]("get_wallet", err)
	}
	holdings, err := s.store.GetHoldings(ctx, principal.UserId)
	if err != nil {
		return fail[models.WalletView]("get_wallet", err)
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}

	return models.Ok(models.WalletView{
		WalletBalance:  user.WalletBalance,
		TotalDeposited: user.TotalDeposited,
		TotalWithdrawn: user.TotalWithdrawn,
		Holdings:       holdings,
	}, "")
}

// CreditHolding is an admin adjustment that adds to a portfolio holding
func (s *LedgerService) CreditHolding(ctx context.Context, adminToken, userId, symbol string, amount decimal.Decimal) models.Envelope[models.Holding] {
	admin, err := s.requireAdmin(ctx, adminToken)
	if err != nil {
		return fail[models.Holding]("credit_holding", err)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fail[models.Holding]("credit_holding", validationError("symbol is required"))
	}
	if !amount.IsPositive() {
		return fail[models.Holding]("credit_holding", validationError("amount must be greater than zero"))
	}

	reference := uuid.New().String()
	holding, err := withRetry(func() (*models.Holding, error) {
		return s.store.CreditHolding(ctx, userId, symbol, amount, reference)
	})
	if err != nil {
		return fail[models.Holding]("credit_holding", err)
	}

	zap.L().Info("Holding credited",
		zap.String("admin_id", admin.UserId),
		zap.String("user_id", userId),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("new_balance", holding.Balance.String()))

	s.notifier.Event(models.LifecycleEvent{
		Type:    models.EventHoldingCredited,
		UserId:  userId,
		EntryId: reference,
		Symbol:  symbol,
		Amount:  amount,
		Status:  models.StatusCompleted,
	})

	return models.Ok(*holding, "Holding credited")
}

// ListPending returns every entry awaiting an admin decision
func (s *LedgerService) ListPending(ctx context.Context, adminToken string) models.Envelope[models.PendingEntries] {
	if _, err := s.requireAdmin(ctx, adminToken); err != nil {
		return fail[models.PendingEntries]("list_pending", err)
	}

	deposits, err := s.store.ListPendingDeposits(ctx)
	if err != nil {
		return fail[models.PendingEntries]("list_pending", err)
	}
	withdrawals, err := s.store.ListPendingWithdrawals(ctx)
	if err != nil {
		return fail[models.PendingEntries]("list_pending", err)
	}
	if deposits == nil {
		deposits = []models.Deposit{}
	}
	if withdrawals == nil {
		withdrawals = []models.Withdrawal{}
	}

	return models.Ok(models.PendingEntries{Deposits: deposits, Withdrawals: withdrawals}, "")
}
