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
	"wallet-lifecycle-go/internal/store"
)

func (s *Service) InsertNotification(ctx context.Context, n models.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode notification metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, queryInsertNotification,
		n.Id, n.UserId, n.Type, n.Title, n.Message, n.Icon, n.ActionUrl, string(metadata), n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, userId string, limit int) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, queryListNotifications, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeRows(rows)

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var metadata string
		err := rows.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.Icon, &n.ActionUrl, &n.IsRead, &metadata, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode notification metadata: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, userId, notificationId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkNotificationRead, userId, notificationId)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if err := checkAffected(result, store.ErrNotFound); err != nil {
		return fmt.Errorf("notification %s: %w", notificationId, err)
	}
	return nil
}
