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
	"encoding/json"
	"fmt"

	"wallet-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// ReplacePaymentMethods swaps the whole payment configuration atomically
func (s *Service) ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, queryDeletePaymentMethods); err != nil {
		return fmt.Errorf("failed to clear payment methods: %w", err)
	}
	for _, m := range methods {
		details, err := json.Marshal(m.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details of %s: %w", m.Id, err)
		}
		_, err = tx.ExecContext(ctx, queryInsertPaymentMethod,
			m.Id, m.Kind, m.Name, m.Symbol, m.Network, m.Address, string(details), m.IsActive, m.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to insert payment method %s: %w", m.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	zap.L().Info("Payment methods replaced", zap.Int("count", len(methods)))
	return nil
}

func (s *Service) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, queryListPaymentMethods, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer closeRows(rows)

	methods := []models.PaymentMethod{}
	for rows.Next() {
		var m models.PaymentMethod
		var details string
		err := rows.Scan(&m.Id, &m.Kind, &m.Name, &m.Symbol, &m.Network, &m.Address, &details, &m.IsActive, &m.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &m.Details); err != nil {
			return nil, fmt.Errorf("failed to decode payment method details: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment method rows: %w", err)
	}
	return methods, nil
}
