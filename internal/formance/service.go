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

package formance

import (
	"context"
	"errors"
	"fmt"

	"wallet-lifecycle-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// assetPrecision maps canonical asset symbols to their decimal precision.
var assetPrecision = map[string]int{
	"USD":  2,
	"USDC": 6,
	"USDT": 6,
	"BTC":  8,
	"ETH":  18,
	"SOL":  9,
}

// Mirror copies committed lifecycle events into a Formance ledger. The local
// database stays authoritative; the mirror is an audit copy.
type Mirror struct {
	ledger string
	post   func(ctx context.Context, tx shared.V2PostTransaction) error
}

// NewMirror connects to the stack and creates the ledger if it doesn't already exist.
func NewMirror(ctx context.Context, cfg models.FormanceConfig) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "wallet-lifecycle"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	if err := ensureLedger(ctx, client, cfg.LedgerName); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	m := &Mirror{
		ledger: cfg.LedgerName,
		post: func(ctx context.Context, tx shared.V2PostTransaction) error {
			_, err := client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
				Ledger:            cfg.LedgerName,
				V2PostTransaction: tx,
			})
			return err
		},
	}

	zap.L().Info("Formance mirror initialized", zap.String("ledger", cfg.LedgerName))
	return m, nil
}

// ensureLedger creates the ledger if it does not already exist.
func ensureLedger(ctx context.Context, client *v3.Formance, ledger string) error {
	_, err := client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "wallet-lifecycle",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", ledger))
	return nil
}

// Post records the event. Events without a balance effect are ignored and
// a duplicate reference counts as already mirrored.
func (m *Mirror) Post(ctx context.Context, event models.LifecycleEvent) error {
	tx, err := buildTransaction(event)
	if err != nil {
		zap.L().Error("Event cannot be mirrored",
			zap.String("type", event.Type),
			zap.String("reference", event.Reference()),
			zap.Error(err))
		return err
	}
	if tx == nil {
		return nil
	}

	if err := m.post(ctx, *tx); err != nil {
		if isConflictError(err) {
			zap.L().Debug("Event already mirrored", zap.String("reference", event.Reference()))
			return nil
		}
		return fmt.Errorf("error mirroring %s: %w", event.Type, err)
	}

	zap.L().Info("Event mirrored to Formance",
		zap.String("ledger", m.ledger),
		zap.String("type", event.Type),
		zap.String("user_id", event.UserId),
		zap.String("reference", event.Reference()))
	return nil
}

// ---------- helpers ----------

// formanceAsset returns the Formance UMN notation, e.g. "USDC/6".
func formanceAsset(symbol string) string {
	return fmt.Sprintf("%s/%d", symbol, precisionFor(symbol))
}

func precisionFor(symbol string) int {
	if p, ok := assetPrecision[symbol]; ok {
		return p
	}
	return 6
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func strPtr(s string) *string { return &s }
