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

package prime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/security"

	"go.uber.org/zap"
)

// ErrRail marks a failure of the outbound payment rail
var ErrRail = errors.New("payment rail failure")

// Rail sends a payout and returns its transaction hash
type Rail interface {
	Send(ctx context.Context, payout models.Payout) (string, error)
}

var (
	_ Rail = (*Service)(nil)
	_ Rail = (*PlaceholderRail)(nil)
)

// PlaceholderRail fabricates a 0x-prefixed 32 byte hash without moving funds.
// Used when no Prime credentials are configured. The same idempotency key
// always yields the same hash for the life of the process.
type PlaceholderRail struct {
	mu     sync.Mutex
	issued map[string]string
}

func NewPlaceholderRail() *PlaceholderRail {
	return &PlaceholderRail{issued: map[string]string{}}
}

func (p *PlaceholderRail) Send(ctx context.Context, payout models.Payout) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRail, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if hash, ok := p.issued[payout.IdempotencyKey]; ok {
		return hash, nil
	}

	hash, err := security.RandomHex(32)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRail, err)
	}
	hash = "0x" + hash
	if payout.IdempotencyKey != "" {
		p.issued[payout.IdempotencyKey] = hash
	}

	zap.L().Warn("Placeholder rail used, no funds moved",
		zap.String("idempotency_key", payout.IdempotencyKey),
		zap.String("symbol", payout.Symbol))
	return hash, nil
}
