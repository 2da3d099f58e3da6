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
	"wallet-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

func printMethods(methods []models.PaymentMethod) {
	for i, pm := range methods {
		state := "active"
		if !pm.IsActive {
			state = "inactive"
		}
		fmt.Printf("%s %-16s %-7s %-20s %s\n", common.BoxPrefix(i == len(methods)-1), pm.Id, pm.Kind, pm.Name, state)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fileFlag := flag.String("payment-methods", "", "Payment methods YAML (default: PAYMENT_METHODS_FILE)")
	dryRunFlag := flag.Bool("dry-run", false, "Validate the file without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	file := cfg.PaymentMethodsFile
	if *fileFlag != "" {
		file = *fileFlag
	}

	zap.L().Info("Loading payment methods", zap.String("file", file))
	methods, err := common.LoadPaymentMethods(file)
	if err != nil {
		zap.L().Fatal("Failed to load payment methods", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("PAYMENT METHODS (%d)", len(methods)), common.DefaultWidth)
	printMethods(methods)

	if *dryRunFlag {
		common.PrintFooter("Dry run, nothing written", common.DefaultWidth)
		return
	}

	// opening the database also creates the schema
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if err := dbService.ReplacePaymentMethods(ctx, methods); err != nil {
		zap.L().Fatal("Failed to store payment methods", zap.Error(err))
	}

	common.PrintFooter("Payment configuration replaced", common.DefaultWidth)
	zap.L().Info("Setup completed", zap.Int("payment_methods", len(methods)))
}
