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
	"database/sql"
	"errors"
	"fmt"

	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/store"
)

func (s *Service) CreateSession(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx, queryInsertSession, session.Token, session.UserId, session.CreatedAt.UTC(), session.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *Service) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx, queryGetSession, token).Scan(
		&session.Token, &session.UserId, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *Service) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteSession, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
