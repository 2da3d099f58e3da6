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

	"wallet-lifecycle-go/internal/common"
	"wallet-lifecycle-go/internal/config"
	"wallet-lifecycle-go/internal/database"
	"wallet-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	totalHoldings     int
	reconcileFailures int
}

func printHolding(h models.Holding, isLast bool) {
	fmt.Printf("%s %-8s: %24s  escrowed %20s  (v%d, updated: %s)\n",
		common.BoxPrefix(isLast),
		h.Symbol,
		h.Balance.String(),
		h.Escrowed.String(),
		h.Version,
		h.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user common.UserInfo, u *models.User) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Wallet: %s  (deposited %s, withdrawn %s)\n",
		u.WalletBalance.String(), u.TotalDeposited.String(), u.TotalWithdrawn.String())
	common.PrintBoxSeparator(78)
}

// reconcile checks every stored balance of the user against its audit trail
func reconcile(ctx context.Context, dbService *database.Service, userId string, holdings []models.Holding) int {
	assets := []string{database.WalletAsset}
	for _, h := range holdings {
		assets = append(assets, h.Symbol, database.EscrowAsset(h.Symbol))
	}

	failures := 0
	for _, asset := range assets {
		if err := dbService.ReconcileUserBalance(ctx, userId, asset); err != nil {
			failures++
			zap.L().Error("Balance does not reconcile",
				zap.String("user_id", userId),
				zap.String("asset", asset),
				zap.Error(err))
			fmt.Printf("   ✗ %s does not reconcile: %v\n", asset, err)
		}
	}
	return failures
}

func printHistory(ctx context.Context, dbService *database.Service, userId, asset string, limit int) {
	history, err := dbService.GetTransactionHistory(ctx, userId, asset, limit, 0)
	if err != nil {
		zap.L().Error("Failed to load history", zap.String("asset", asset), zap.Error(err))
		return
	}
	for _, tx := range history {
		fmt.Printf("   %s  %-8s %-22s %20s -> %s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), asset, tx.TransactionType,
			tx.Amount.String(), tx.BalanceAfter.String())
	}
}

func processUser(ctx context.Context, user common.UserInfo, dbService *database.Service, history int, stats *balanceStats) error {
	u, err := dbService.GetUserById(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	holdings, err := dbService.GetHoldings(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("failed to get holdings: %w", err)
	}

	printUserHeader(user, u)
	for i, h := range holdings {
		printHolding(h, i == len(holdings)-1)
	}

	if history > 0 {
		printHistory(ctx, dbService, user.Id, database.WalletAsset, history)
		for _, h := range holdings {
			printHistory(ctx, dbService, user.Id, h.Symbol, history)
		}
	}

	stats.totalHoldings += len(holdings)
	stats.reconcileFailures += reconcile(ctx, dbService, user.Id, holdings)
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	historyFlag := flag.Int("history", 0, "Also print the last N audit rows per asset")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *emailFlag)
	if err != nil {
		zap.L().Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		if err := processUser(ctx, user, dbService, *historyFlag, &stats); err != nil {
			zap.L().Error("Failed to process user", zap.String("user_id", user.Id), zap.Error(err))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d users, %d holdings, %d reconciliation failures",
		stats.totalUsers, stats.totalHoldings, stats.reconcileFailures)
	common.PrintFooter(summary, common.DefaultWidth)
}
