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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"wallet-lifecycle-go/internal/common"
	"wallet-lifecycle-go/internal/config"
	"wallet-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

type decision struct {
	kind    string
	userId  string
	entryId string
	approve bool
	reason  string
}

func parseDecision(kind, userId, entryId string, approve bool, reason string) (*decision, error) {
	if entryId == "" {
		return nil, nil
	}
	if kind != "deposit" && kind != "withdrawal" {
		return nil, fmt.Errorf("--kind must be deposit or withdrawal, got %q", kind)
	}
	if userId == "" {
		return nil, fmt.Errorf("--user is required with --id")
	}
	if approve == (reason != "") {
		return nil, fmt.Errorf("pass exactly one of --approve or --reject")
	}
	return &decision{kind: kind, userId: userId, entryId: entryId, approve: approve, reason: reason}, nil
}

func printPending(pending models.PendingEntries) {
	common.PrintHeader("PENDING DEPOSITS", common.WideWidth)
	for i, d := range pending.Deposits {
		fmt.Printf("%s %s  user %s  %s %s (value %s)  %s\n",
			common.BoxPrefix(i == len(pending.Deposits)-1),
			d.Id, d.UserId, d.Amount, d.Symbol, d.Value, d.Date.Format("2006-01-02 15:04"))
	}
	common.PrintHeader("PENDING WITHDRAWALS", common.WideWidth)
	for i, w := range pending.Withdrawals {
		isLast := i == len(pending.Withdrawals)-1
		fmt.Printf("%s %s  user %s  %s %s + fee %s  %s\n",
			common.BoxPrefix(isLast),
			w.Id, w.UserId, w.Amount, w.Symbol, w.Fee, w.Date.Format("2006-01-02 15:04"))
		fmt.Printf("%s   to %s on %s\n", common.BoxDetailPrefix(isLast), w.Address, w.Network)
	}
	common.PrintSeparator("=", common.WideWidth)
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	adminFlag := flag.String("admin", "", "Email of the admin account acting (required)")
	kindFlag := flag.String("kind", "withdrawal", "Entry kind: deposit or withdrawal")
	userFlag := flag.String("user", "", "Owner user id of the entry")
	idFlag := flag.String("id", "", "Entry id to decide; omit to list pending entries")
	approveFlag := flag.Bool("approve", false, "Approve the entry")
	rejectFlag := flag.String("reject", "", "Reject the entry with this reason")
	flag.Parse()

	if *adminFlag == "" {
		zap.L().Fatal("--admin is required")
	}
	d, err := parseDecision(*kindFlag, *userFlag, *idFlag, *approveFlag, *rejectFlag)
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		services.Close(drainCtx)
	}()

	token, err := common.AdminSession(ctx, services.DbService, *adminFlag, 10*time.Minute)
	if err != nil {
		zap.L().Fatal("Failed to open admin session", zap.Error(err))
	}
	defer services.Ledger.Logout(ctx, token)

	if d == nil {
		env := services.Ledger.ListPending(ctx, token)
		if !env.Success {
			zap.L().Fatal("Failed to list pending entries", zap.String("code", env.Code), zap.String("error", env.Error))
		}
		printPending(*env.Data)
		return
	}

	var (
		success bool
		code    string
		message string
	)
	switch {
	case d.kind == "deposit" && d.approve:
		env := services.Ledger.ApproveDeposit(ctx, token, d.userId, d.entryId)
		success, code, message = env.Success, env.Code, env.Error
		if env.Success {
			fmt.Printf("✓ Deposit %s approved, new wallet balance %s\n", d.entryId, env.Data.NewBalance)
		}
	case d.kind == "deposit":
		env := services.Ledger.RejectDeposit(ctx, token, d.userId, d.entryId, d.reason)
		success, code, message = env.Success, env.Code, env.Error
		if env.Success {
			fmt.Printf("✓ Deposit %s rejected\n", d.entryId)
		}
	case d.approve:
		env := services.Ledger.ApproveWithdrawal(ctx, token, d.userId, d.entryId)
		success, code, message = env.Success, env.Code, env.Error
		if env.Success {
			fmt.Printf("✓ Withdrawal %s approved, tx hash %s\n", d.entryId, *env.Data.Withdrawal.TxHash)
		}
	default:
		env := services.Ledger.RejectWithdrawal(ctx, token, d.userId, d.entryId, d.reason)
		success, code, message = env.Success, env.Code, env.Error
		if env.Success {
			fmt.Printf("✓ Withdrawal %s rejected and refunded\n", d.entryId)
		}
	}

	if !success {
		fmt.Printf("✗ %s %s: %s (%s)\n", d.kind, d.entryId, message, code)
		zap.L().Error("Decision failed", zap.String("code", code), zap.String("error", message))
	}
}
