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

import "time"

// Config represents the application configuration
type Config struct {
	Database           DatabaseConfig
	Server             ServerConfig
	Security           SecurityConfig
	Otp                OtpConfig
	Lifecycle          LifecycleConfig
	Notify             NotifyConfig
	Smtp               SmtpConfig
	Kafka              KafkaConfig
	Prime              PrimeConfig
	Formance           FormanceConfig
	PaymentMethodsFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SessionTtl      time.Duration
	CookieSecure    bool
}

// SecurityConfig holds hashing and attempt limiting settings
type SecurityConfig struct {
	PinMaxAttempts     int
	PinLockoutWindow   time.Duration
	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration
	ResetMaxRequests   int
	ResetWindow        time.Duration
	Argon2MemoryKb     uint32
	Argon2Iterations   uint32
	RedisAddr          string
}

// OtpConfig holds one-time code settings
type OtpConfig struct {
	Ttl         time.Duration
	MaxAttempts int
	Digits      int
}

// LifecycleConfig holds deposit/withdrawal settings
type LifecycleConfig struct {
	DepositConfirmations int
}

// NotifyConfig holds notification dispatcher settings
type NotifyConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	TaskTimeout time.Duration
	BaseBackoff time.Duration
}

// SmtpConfig holds outbound email settings. Email is disabled when Host is empty.
type SmtpConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// KafkaConfig holds event sink settings. Disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PrimeConfig holds payment rail settings. The placeholder rail is used
// when credentials are absent.
type PrimeConfig struct {
	AccessKey   string
	Passphrase  string
	SigningKey  string
	PortfolioId string
	WalletsFile string
}

// Enabled reports whether Prime credentials were supplied
func (c PrimeConfig) Enabled() bool {
	return c.AccessKey != "" && c.Passphrase != "" && c.SigningKey != ""
}

// FormanceConfig holds ledger mirror settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// Enabled reports whether the mirror is configured
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != "" && c.ClientID != "" && c.ClientSecret != ""
}
