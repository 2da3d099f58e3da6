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

const (
	userColumns = `id, email, name, password_hash, is_admin, email_verified,
		wallet_balance, total_deposited, total_withdrawn, version, created_at, updated_at`

	depositColumns = `id, user_id, symbol, amount, value, status, confirmations, tx_hash,
		created_at, approved_at, rejected_at, rejection_reason`

	withdrawalColumns = `id, user_id, symbol, amount, address, network, fee, status, tx_hash,
		created_at, approved_at, rejected_at, rejection_reason`

	// User queries
	queryInsertUser = `
		INSERT INTO users (id, email, name, password_hash, withdrawal_pin_hash, tax_code_pin_hash,
		                   is_admin, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER(?)`

	queryGetUserSecrets = `
		SELECT id, password_hash, withdrawal_pin_hash, tax_code_pin_hash
		FROM users
		WHERE id = ?`

	queryUpdatePins = `
		UPDATE users
		SET withdrawal_pin_hash = ?, tax_code_pin_hash = ?, updated_at = ?
		WHERE id = ?`

	queryUpdateUserTotals = `
		UPDATE users
		SET wallet_balance = ?, total_deposited = ?, total_withdrawn = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	// Holding queries
	queryGetHoldings = `
		SELECT user_id, symbol, balance, escrowed, avg_buy_price, version, updated_at
		FROM portfolio_holdings
		WHERE user_id = ?
		ORDER BY symbol`

	queryGetHolding = `
		SELECT user_id, symbol, balance, escrowed, avg_buy_price, version, updated_at
		FROM portfolio_holdings
		WHERE user_id = ? AND symbol = ?`

	queryInsertHolding = `
		INSERT INTO portfolio_holdings (user_id, symbol, balance, escrowed, avg_buy_price, version, updated_at)
		VALUES (?, ?, '0', '0', '0', 1, ?)`

	queryUpdateHolding = `
		UPDATE portfolio_holdings
		SET balance = ?, escrowed = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND symbol = ? AND version = ?`

	// Deposit queries
	queryInsertDeposit = `
		INSERT INTO deposits (id, user_id, symbol, amount, value, status, confirmations, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', 0, ?, ?)`

	queryGetDeposit = `
		SELECT ` + depositColumns + `
		FROM deposits
		WHERE user_id = ? AND id = ?`

	queryListDeposits = `
		SELECT ` + depositColumns + `
		FROM deposits
		WHERE user_id = ?
		ORDER BY created_at DESC`

	queryListPendingDeposits = `
		SELECT ` + depositColumns + `
		FROM deposits
		WHERE status = 'pending'
		ORDER BY created_at`

	queryDepositStatus = `
		SELECT status FROM deposits WHERE user_id = ? AND id = ?`

	queryCompleteDeposit = `
		UPDATE deposits
		SET status = 'completed', confirmations = ?, approved_at = ?
		WHERE user_id = ? AND id = ? AND status = 'pending'`

	queryFailDeposit = `
		UPDATE deposits
		SET status = 'failed', rejected_at = ?, rejection_reason = ?
		WHERE user_id = ? AND id = ? AND status = 'pending'`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (id, user_id, symbol, amount, address, network, fee, status, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', NULL, ?)`

	queryGetWithdrawal = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = ? AND id = ?`

	queryListWithdrawals = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = ?
		ORDER BY created_at DESC`

	queryListPendingWithdrawals = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE status IN ('pending', 'processing')
		ORDER BY created_at`

	queryWithdrawalStatus = `
		SELECT status FROM withdrawals WHERE user_id = ? AND id = ?`

	queryClaimWithdrawal = `
		UPDATE withdrawals
		SET status = 'processing'
		WHERE user_id = ? AND id = ? AND status = 'pending'`

	queryReleaseWithdrawal = `
		UPDATE withdrawals
		SET status = 'pending'
		WHERE user_id = ? AND id = ? AND status = 'processing'`

	queryCompleteWithdrawal = `
		UPDATE withdrawals
		SET status = 'completed', tx_hash = ?, approved_at = ?
		WHERE user_id = ? AND id = ? AND status = 'processing'`

	queryFailWithdrawal = `
		UPDATE withdrawals
		SET status = 'failed', rejected_at = ?, rejection_reason = ?
		WHERE user_id = ? AND id = ? AND status = 'pending'`

	// One-time code queries
	queryGetOtpSlot = `
		SELECT id, otp_code_hash, otp_type, otp_expires_at, otp_attempts, otp_is_used
		FROM users
		WHERE id = ?`

	queryStoreOtp = `
		UPDATE users
		SET otp_code_hash = ?, otp_type = ?, otp_expires_at = ?, otp_attempts = 0, otp_is_used = 0, updated_at = ?
		WHERE id = ?`

	queryClaimOtpAttempt = `
		UPDATE users
		SET otp_attempts = otp_attempts + 1
		WHERE id = ? AND otp_code_hash = ? AND otp_code_hash != '' AND otp_is_used = 0 AND otp_attempts < ?
		RETURNING otp_attempts`

	queryConsumeEmailOtp = `
		UPDATE users
		SET otp_is_used = 1, email_verified = 1, updated_at = ?
		WHERE id = ? AND otp_is_used = 0 AND otp_code_hash != '' AND otp_type = 'email_verification'`

	queryConsumeResetOtp = `
		UPDATE users
		SET otp_is_used = 1, password_hash = ?, updated_at = ?
		WHERE id = ? AND otp_is_used = 0 AND otp_code_hash != '' AND otp_type = 'password_reset'`

	// Session queries
	queryInsertSession = `
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`

	queryGetSession = `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = ?`

	queryDeleteSession = `
		DELETE FROM sessions WHERE token = ?`

	queryDeleteUserSessions = `
		DELETE FROM sessions WHERE user_id = ?`

	// Notification queries
	queryInsertNotification = `
		INSERT INTO notifications (id, user_id, type, title, message, icon, action_url, is_read, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	queryListNotifications = `
		SELECT id, user_id, type, title, message, icon, action_url, is_read, metadata, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryMarkNotificationRead = `
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND id = ?`

	// Payment method queries
	queryDeletePaymentMethods = `
		DELETE FROM payment_methods`

	queryInsertPaymentMethod = `
		INSERT INTO payment_methods (id, kind, name, symbol, network, address, details, is_active, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListPaymentMethods = `
		SELECT id, kind, name, symbol, network, address, details, is_active, sort_order
		FROM payment_methods
		WHERE is_active = 1 OR ? = 0
		ORDER BY sort_order, name`

	// Audit queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, asset, transaction_type, amount, balance_before, balance_after, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryCheckDuplicateReference = `
		SELECT id FROM transactions WHERE reference = ? AND asset = ? AND transaction_type = ? LIMIT 1`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, asset, transaction_type, amount, balance_before, balance_after, reference, created_at
		FROM transactions
		WHERE user_id = ? AND asset = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE user_id = ? AND asset = ?`
)
