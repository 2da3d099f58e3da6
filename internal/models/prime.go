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

package models

import "github.com/shopspring/decimal"

// Portfolio represents a Prime portfolio
type Portfolio struct {
	Id   string
	Name string
}

// Payout is an outbound transfer handed to the payment rail.
// IdempotencyKey is the withdrawal id so a retried approval cannot pay twice.
type Payout struct {
	UserId         string
	Symbol         string
	Amount         decimal.Decimal
	Address        string
	Network        string
	IdempotencyKey string
}
