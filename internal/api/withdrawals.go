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

// SubmitWithdrawal escrows amount+fee out of the holding and records a
// pending withdrawal. Checks run in order: session, input, tax PIN,
// withdrawal PIN, balance.
func (s *LedgerService) SubmitWithdrawal(ctx context.Context, token string, req models.WithdrawalRequest) models.Envelope[models.Withdrawal] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[models.Withdrawal]("submit_withdrawal", err)
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Address = strings.TrimSpace(req.Address)
	req.Network = strings.TrimSpace(req.Network)
	if err := validateWithdrawal(req); err != nil {
		return fail[models.Withdrawal]("submit_withdrawal", err)
	}

	if err := s.verifyPin(ctx, principal.UserId, PinTaxCode, req.TaxCodePin); err != nil {
		return fail[models.Withdrawal]("submit_withdrawal", err)
	}
	if err := s.verifyPin(ctx, principal.UserId, PinWithdrawal, req.WithdrawalPin); err != nil {
		return fail[models.Withdrawal]("submit_withdrawal", err)
	}

	zap.L().Info("Submitting withdrawal",
		zap.String("user_id", principal.UserId),
		zap.String("symbol", req.Symbol),
		zap.String("amount", req.Amount.String()),
		zap.String("fee", req.Fee.String()))

	params := store.EscrowWithdrawalParams{
		Id:      uuid.New().String(),
		UserId:  principal.UserId,
		Symbol:  req.Symbol,
		Amount:  req.Amount,
		Fee:     req.Fee,
		Address: req.Address,
		Network: req.Network,
	}
	result, err := withRetry(func() (*store.WithdrawalResult, error) {
		return s.store.EscrowWithdrawal(ctx, params)
	})
	if err != nil {
		return fail[models.Withdrawal]("submit_withdrawal", err)
	}

	w := result.Withdrawal
	s.notifyWithdrawal(principal.Email, principal.Name, w, "Withdrawal Pending",
		fmt.Sprintf("Your withdrawal of %s %s is pending review.", w.Amount, w.Symbol))
	s.notifier.Event(withdrawalEvent(models.EventWithdrawalEscrowed, w))

	return models.Ok(*w, "Withdrawal request submitted")
}

func validateWithdrawal(req models.WithdrawalRequest) error {
	switch {
	case req.Symbol == "":
		return validationError("symbol is required")
	case req.Address == "":
		return validationError("destination address is required")
	case req.Network == "":
		return validationError("network is required")
	case !req.Amount.IsPositive():
		return validationError("amount must be greater than zero")
	case req.Fee.IsNegative():
		return validationError("fee cannot be negative")
	}
	return nil
}

// ApproveWithdrawal claims the withdrawal, pays it out through the rail and
// releases its escrow. A rail failure returns the entry to pending.
func (s *LedgerService) ApproveWithdrawal(ctx context.Context, adminToken, userId, withdrawalId string) models.Envelope[models.WithdrawalApproval] {
	admin, err := s.requireAdmin(ctx, adminToken)
	if err != nil {
		return fail[models.WithdrawalApproval]("approve_withdrawal", err)
	}
	user, err := s.store.GetUserById(ctx, userId)
	if err != nil {
		return fail[models.WithdrawalApproval]("approve_withdrawal", err)
	}

	claimed, err := s.store.ClaimWithdrawal(ctx, userId, withdrawalId)
	if err != nil {
		return fail[models.WithdrawalApproval]("approve_withdrawal", err)
	}

	txHash, err := s.rail.Send(ctx, models.Payout{
		UserId:         userId,
		Symbol:         claimed.Symbol,
		Amount:         claimed.Amount,
		Address:        claimed.Address,
		Network:        claimed.Network,
		IdempotencyKey: claimed.Id,
	})
	if err != nil {
		if releaseErr := s.store.ReleaseWithdrawal(context.WithoutCancel(ctx), userId, withdrawalId); releaseErr != nil {
			zap.L().Error("Failed to release withdrawal after rail failure",
				zap.String("user_id", userId),
				zap.String("withdrawal_id", withdrawalId),
				zap.Error(releaseErr))
		}
		return fail[models.WithdrawalApproval]("approve_withdrawal", err)
	}

	// The payout has left; settle even if the caller went away.
	settleCtx := context.WithoutCancel(ctx)
	result, err := withRetry(func() (*store.WithdrawalResult, error) {
		return s.store.CompleteWithdrawal(settleCtx, userId, withdrawalId, txHash)
	})
	if err != nil {
		zap.L().Error("Withdrawal paid out but not settled",
			zap.String("user_id", userId),
			zap.String("withdrawal_id", withdrawalId),
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return fail[models.WithdrawalApproval]("approve_withdrawal", err)
	}

	zap.L().Info("Withdrawal approved",
		zap.String("admin_id", admin.UserId),
		zap.String("user_id", userId),
		zap.String("withdrawal_id", withdrawalId),
		zap.String("tx_hash", txHash))

	w := result.Withdrawal
	s.notifyWithdrawal(user.Email, user.Name, w, "Withdrawal Completed",
		fmt.Sprintf("Your withdrawal of %s %s has been sent.", w.Amount, w.Symbol))
	s.notifier.Event(withdrawalEvent(models.EventWithdrawalReleased, w))

	return models.Ok(models.WithdrawalApproval{
		NewBalance: result.Holding.Balance,
		Withdrawal: *w,
	}, "Withdrawal approved")
}

// RejectWithdrawal fails the withdrawal and refunds its escrow to the holding
func (s *LedgerService) RejectWithdrawal(ctx context.Context, adminToken, userId, withdrawalId, reason string) models.Envelope[models.Withdrawal] {
	admin, err := s.requireAdmin(ctx, adminToken)
	if err != nil {
		return fail[models.Withdrawal]("reject_withdrawal", err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fail[models.Withdrawal]("reject_withdrawal", validationError("rejection reason is required"))
	}
	user, err := s.store.GetUserById(ctx, userId)
	if err != nil {
		return fail[models.Withdrawal]("reject_withdrawal", err)
	}

	result, err := withRetry(func() (*store.WithdrawalResult, error) {
		return s.store.RefundWithdrawal(ctx, userId, withdrawalId, reason)
	})
	if err != nil {
		return fail[models.Withdrawal]("reject_withdrawal", err)
	}

	zap.L().Info("Withdrawal rejected",
		zap.String("admin_id", admin.UserId),
		zap.String("user_id", userId),
		zap.String("withdrawal_id", withdrawalId),
		zap.String("reason", reason))

	w := result.Withdrawal
	s.notifyWithdrawal(user.Email, user.Name, w, "Withdrawal Rejected",
		fmt.Sprintf("Your withdrawal of %s %s was rejected and refunded: %s", w.Amount, w.Symbol, reason))
	s.notifier.Event(withdrawalEvent(models.EventWithdrawalRefunded, w))

	return models.Ok(*w, "Withdrawal rejected and refunded")
}

func (s *LedgerService) ListWithdrawals(ctx context.Context, token string) models.Envelope[[]models.Withdrawal] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[[]models.Withdrawal]("list_withdrawals", err)
	}
	withdrawals, err := s.store.ListWithdrawals(ctx, principal.UserId)
	if err != nil {
		return fail[[]models.Withdrawal]("list_withdrawals", err)
	}
	return models.Ok(withdrawals, "")
}

func (s *LedgerService) notifyWithdrawal(email, name string, w *models.Withdrawal, title, message string) {
	s.notifier.InApp(models.Notification{
		UserId:    w.UserId,
		Type:      "transaction",
		Title:     title,
		Message:   message,
		Icon:      "arrow-up-right",
		ActionUrl: "/wallet/withdrawals",
		Metadata: map[string]string{
			"withdrawal_id": w.Id,
			"symbol":        w.Symbol,
			"amount":        w.Amount.String(),
			"status":        w.Status,
		},
	})

	mail := notify.WithdrawalMail{
		Name:    name,
		Id:      w.Id,
		Symbol:  w.Symbol,
		Amount:  w.Amount.String(),
		Fee:     w.Fee.String(),
		Address: w.Address,
		Network: w.Network,
		Status:  w.Status,
		Reason:  w.RejectionReason,
	}
	if w.TxHash != nil {
		mail.TxHash = *w.TxHash
	}
	s.notifier.Email(email, notify.TemplateWithdrawal, mail)
}

func withdrawalEvent(eventType string, w *models.Withdrawal) models.LifecycleEvent {
	event := models.LifecycleEvent{
		Type:    eventType,
		UserId:  w.UserId,
		EntryId: w.Id,
		Symbol:  w.Symbol,
		Amount:  w.Amount,
		Fee:     w.Fee,
		Status:  w.Status,
	}
	if w.TxHash != nil {
		event.TxHash = *w.TxHash
	}
	return event
}
