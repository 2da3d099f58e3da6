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
	"fmt"
	"strings"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/notify"
	"wallet-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitDeposit records a pending deposit. Nothing is credited until an
// admin approves it.
func (s *LedgerService) SubmitDeposit(ctx context.Context, token string, req models.DepositRequest) models.Envelope[models.Deposit] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[models.Deposit]("submit_deposit", err)
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	switch {
	case req.Symbol == "":
		return fail[models.Deposit]("submit_deposit", validationError("symbol is required"))
	case !req.Amount.IsPositive():
		return fail[models.Deposit]("submit_deposit", validationError("amount must be greater than zero"))
	case !req.Value.IsPositive():
		return fail[models.Deposit]("submit_deposit", validationError("value must be greater than zero"))
	}

	deposit, err := s.store.CreateDeposit(ctx, store.CreateDepositParams{
		Id:     uuid.New().String(),
		UserId: principal.UserId,
		Symbol: req.Symbol,
		Amount: req.Amount,
		Value:  req.Value,
		TxHash: strings.TrimSpace(req.TxHash),
	})
	if err != nil {
		return fail[models.Deposit]("submit_deposit", err)
	}

	zap.L().Info("Deposit submitted",
		zap.String("user_id", principal.UserId),
		zap.String("deposit_id", deposit.Id),
		zap.String("symbol", deposit.Symbol),
		zap.String("amount", deposit.Amount.String()))

	s.notifyDeposit(principal.Email, principal.Name, deposit, "", "Deposit Pending",
		fmt.Sprintf("Your deposit of %s %s is awaiting confirmation.", deposit.Amount, deposit.Symbol))
	s.notifier.Event(depositEvent(models.EventDepositSubmitted, deposit))

	return models.Ok(*deposit, "Deposit submitted")
}

// ApproveDeposit completes a pending deposit and credits its value to the
// wallet balance in the same transaction.
func (s *LedgerService) ApproveDeposit(ctx context.Context, adminToken, userId, depositId string) models.Envelope[models.DepositApproval] {
	admin, err := s.requireAdmin(ctx, adminToken)
	if err != nil {
		return fail[models.DepositApproval]("approve_deposit", err)
	}

	result, err := withRetry(func() (*store.DepositApprovalResult, error) {
		return s.store.ApproveDeposit(ctx, userId, depositId, s.settings.DepositConfirmations)
	})
	if err != nil {
		return fail[models.DepositApproval]("approve_deposit", err)
	}

	zap.L().Info("Deposit approved",
		zap.String("admin_id", admin.UserId),
		zap.String("user_id", userId),
		zap.String("deposit_id", depositId),
		zap.String("new_balance", result.User.WalletBalance.String()))

	d := result.Deposit
	s.notifyDeposit(result.User.Email, result.User.Name, d, result.User.WalletBalance.String(), "Deposit Confirmed",
		fmt.Sprintf("Your deposit of %s %s has been credited.", d.Amount, d.Symbol))
	event := depositEvent(models.EventDepositApproved, d)
	event.Amount = d.Value
	s.notifier.Event(event)

	return models.Ok(models.DepositApproval{
		NewBalance: result.User.WalletBalance,
		Deposit:    *d,
	}, "Deposit approved")
}

func (s *LedgerService) RejectDeposit(ctx context.Context, adminToken, userId, depositId, reason string) models.Envelope[models.Deposit] {
	admin, err := s.requireAdmin(ctx, adminToken)
	if err != nil {
		return fail[models.Deposit]("reject_deposit", err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fail[models.Deposit]("reject_deposit", validationError("rejection reason is required"))
	}
	user, err := s.store.GetUserById(ctx, userId)
	if err != nil {
		return fail[models.Deposit]("reject_deposit", err)
	}

	deposit, err := s.store.RejectDeposit(ctx, userId, depositId, reason)
	if err != nil {
		return fail[models.Deposit]("reject_deposit", err)
	}

	zap.L().Info("Deposit rejected",
		zap.String("admin_id", admin.UserId),
		zap.String("user_id", userId),
		zap.String("deposit_id", depositId),
		zap.String("reason", reason))

	s.notifyDeposit(user.Email, user.Name, deposit, "", "Deposit Rejected",
		fmt.Sprintf("Your deposit of %s %s was rejected: %s", deposit.Amount, deposit.Symbol, reason))
	s.notifier.Event(depositEvent(models.EventDepositRejected, deposit))

	return models.Ok(*deposit, "Deposit rejected")
}

func (s *LedgerService) ListDeposits(ctx context.Context, token string) models.Envelope[[]models.Deposit] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[[]models.Deposit]("list_deposits", err)
	}
	deposits, err := s.store.ListDeposits(ctx, principal.UserId)
	if err != nil {
		return fail[[]models.Deposit]("list_deposits", err)
	}
	return models.Ok(deposits, "")
}

func (s *LedgerService) notifyDeposit(email, name string, d *models.Deposit, newBalance, title, message string) {
	s.notifier.InApp(models.Notification{
		UserId:    d.UserId,
		Type:      "transaction",
		Title:     title,
		Message:   message,
		Icon:      "arrow-down-left",
		ActionUrl: "/wallet/deposits",
		Metadata: map[string]string{
			"deposit_id": d.Id,
			"symbol":     d.Symbol,
			"amount":     d.Amount.String(),
			"status":     d.Status,
		},
	})
	s.notifier.Email(email, notify.TemplateDeposit, notify.DepositMail{
		Name:       name,
		Id:         d.Id,
		Symbol:     d.Symbol,
		Amount:     d.Amount.String(),
		Status:     d.Status,
		NewBalance: newBalance,
		Reason:     d.RejectionReason,
	})
}

func depositEvent(eventType string, d *models.Deposit) models.LifecycleEvent {
	return models.LifecycleEvent{
		Type:    eventType,
		UserId:  d.UserId,
		EntryId: d.Id,
		Symbol:  d.Symbol,
		Amount:  d.Amount,
		Status:  d.Status,
		TxHash:  d.TxHash,
	}
}
