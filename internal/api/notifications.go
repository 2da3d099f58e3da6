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

	"wallet-lifecycle-go/internal/models"
)

const defaultNotificationLimit = 50

func (s *LedgerService) ListNotifications(ctx context.Context, token string, limit int) models.Envelope[[]models.Notification] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[[]models.Notification]("list_notifications", err)
	}
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	notifications, err := s.store.ListNotifications(ctx, principal.UserId, limit)
	if err != nil {
		return fail[[]models.Notification]("list_notifications", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return models.Ok(notifications, "")
}

func (s *LedgerService) MarkNotificationRead(ctx context.Context, token, notificationId string) models.Envelope[bool] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[bool]("mark_notification_read", err)
	}
	if err := s.store.MarkNotificationRead(ctx, principal.UserId, notificationId); err != nil {
		return fail[bool]("mark_notification_read", err)
	}
	return models.Ok(true, "")
}

// ListPaymentMethods returns the active payment methods. Admins may ask
// for inactive ones too.
func (s *LedgerService) ListPaymentMethods(ctx context.Context, token string, includeInactive bool) models.Envelope[[]models.PaymentMethod] {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return fail[[]models.PaymentMethod]("list_payment_methods", err)
	}
	if includeInactive && !principal.IsAdmin {
		return fail[[]models.PaymentMethod]("list_payment_methods", errNotAuthorized)
	}
	methods, err := s.store.ListPaymentMethods(ctx, !includeInactive)
	if err != nil {
		return fail[[]models.PaymentMethod]("list_payment_methods", err)
	}
	if methods == nil {
		methods = []models.PaymentMethod{}
	}
	return models.Ok(methods, "")
}
