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
	"errors"
	"flag"
	"fmt"
	"regexp"
	"strings"

	"wallet-lifecycle-go/internal/api"
	"wallet-lifecycle-go/internal/common"
	"wallet-lifecycle-go/internal/config"
	"wallet-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type seed struct {
	symbol string
	amount decimal.Decimal
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

// parseHoldings reads "BTC=0.5,ETH=2" into seeds
func parseHoldings(raw string) ([]seed, error) {
	if raw == "" {
		return nil, nil
	}
	var seeds []seed
	for _, part := range strings.Split(raw, ",") {
		symbol, amount, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid holding %q, expected SYMBOL=AMOUNT", part)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil || !value.IsPositive() {
			return nil, fmt.Errorf("invalid amount for %s: %q", symbol, amount)
		}
		seeds = append(seeds, seed{symbol: strings.ToUpper(symbol), amount: value})
	}
	return seeds, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	passwordFlag := flag.String("password", "", "Initial password, at least 8 characters (required)")
	adminFlag := flag.Bool("admin", false, "Create an admin account")
	verifiedFlag := flag.Bool("verified", false, "Mark the email as already verified")
	holdingsFlag := flag.String("holdings", "", "Initial holdings, e.g. BTC=0.5,ETH=2")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Flags are required: --name, --email and --password")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	seeds, err := parseHoldings(*holdingsFlag)
	if err != nil {
		zap.L().Fatal("Invalid holdings", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	ledger := api.NewLedgerService(dbService, api.Dependencies{Hasher: common.NewHasher(cfg.Security)}, api.Settings{})

	reg, err := ledger.RegisterUser(ctx, api.NewUser{
		Email:    *emailFlag,
		Name:     *nameFlag,
		Password: *passwordFlag,
		IsAdmin:  *adminFlag,
		Verified: *verifiedFlag,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:             %s\n", reg.User.Id)
	fmt.Printf("Name:           %s\n", reg.User.Name)
	fmt.Printf("Email:          %s\n", reg.User.Email)
	fmt.Printf("Admin:          %t\n", reg.User.IsAdmin)
	fmt.Printf("Withdrawal PIN: %s\n", reg.WithdrawalPin)
	fmt.Printf("Tax code PIN:   %s\n", reg.TaxCodePin)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println("The PINs are shown once. Only their hashes are stored.")

	for _, s := range seeds {
		holding, err := dbService.CreditHolding(ctx, reg.User.Id, s.symbol, s.amount, uuid.New().String())
		if err != nil {
			zap.L().Error("Failed to seed holding", zap.String("symbol", s.symbol), zap.Error(err))
			fmt.Printf("✗ %s: failed to seed\n", s.symbol)
			continue
		}
		fmt.Printf("✓ %s: %s\n", holding.Symbol, holding.Balance)
	}
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", reg.User.Id))
}
