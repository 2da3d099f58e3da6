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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wallet-lifecycle-go/internal/models"
)

func Load() (*models.Config, error) {
	var err error
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:         getEnvString("DATABASE_PATH", "wallet.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Server: models.ServerConfig{
			Addr:         getEnvString("HTTP_ADDR", ":8080"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
		},
		Security: models.SecurityConfig{
			PinMaxAttempts:   getEnvInt("PIN_MAX_ATTEMPTS", 5),
			LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 10),
			ResetMaxRequests: getEnvInt("RESET_MAX_REQUESTS", 3),
			Argon2MemoryKb:   uint32(getEnvInt("ARGON2_MEMORY_KB", 64*1024)),
			Argon2Iterations: uint32(getEnvInt("ARGON2_ITERATIONS", 3)),
			RedisAddr:        getEnvString("REDIS_ADDR", ""),
		},
		Otp: models.OtpConfig{
			MaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),
			Digits:      6,
		},
		Lifecycle: models.LifecycleConfig{
			DepositConfirmations: getEnvInt("DEPOSIT_CONFIRMATIONS", 3),
		},
		Notify: models.NotifyConfig{
			Workers:     getEnvInt("NOTIFY_WORKERS", 4),
			QueueSize:   getEnvInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts: getEnvInt("NOTIFY_MAX_ATTEMPTS", 3),
		},
		Smtp: models.SmtpConfig{
			Host:     getEnvString("SMTP_HOST", ""),
			Port:     getEnvString("SMTP_PORT", "465"),
			Username: getEnvString("SMTP_USERNAME", ""),
			Password: getEnvString("SMTP_PASSWORD", ""),
			From:     getEnvString("SMTP_FROM", ""),
		},
		Kafka: models.KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnvString("KAFKA_TOPIC", "wallet.lifecycle"),
		},
		Prime: models.PrimeConfig{
			AccessKey:   os.Getenv("PRIME_ACCESS_KEY"),
			Passphrase:  os.Getenv("PRIME_PASSPHRASE"),
			SigningKey:  os.Getenv("PRIME_SIGNING_KEY"),
			PortfolioId: getEnvString("PRIME_PORTFOLIO_ID", ""),
			WalletsFile: getEnvString("PRIME_WALLETS_FILE", "wallets.yaml"),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "wallet-lifecycle"),
		},
		PaymentMethodsFile: getEnvString("PAYMENT_METHODS_FILE", "payment_methods.yaml"),
	}

	if cfg.Database.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxIdleTime, err = getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Database.PingTimeout, err = getEnvDuration("DB_PING_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.SessionTtl, err = getEnvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Security.PinLockoutWindow, err = getEnvDuration("PIN_LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Security.LoginLockoutWindow, err = getEnvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Security.ResetWindow, err = getEnvDuration("RESET_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.Otp.Ttl, err = getEnvDuration("OTP_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Notify.TaskTimeout, err = getEnvDuration("NOTIFY_TASK_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Notify.BaseBackoff, err = getEnvDuration("NOTIFY_BASE_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *models.Config) error {
	if cfg.Security.PinMaxAttempts <= 0 {
		return fmt.Errorf("PIN_MAX_ATTEMPTS must be positive, got %d", cfg.Security.PinMaxAttempts)
	}
	if cfg.Otp.MaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", cfg.Otp.MaxAttempts)
	}
	if cfg.Otp.Ttl <= 0 {
		return fmt.Errorf("OTP_TTL must be positive, got %v", cfg.Otp.Ttl)
	}
	if cfg.Lifecycle.DepositConfirmations < 0 {
		return fmt.Errorf("DEPOSIT_CONFIRMATIONS cannot be negative, got %d", cfg.Lifecycle.DepositConfirmations)
	}
	if cfg.Notify.Workers <= 0 || cfg.Notify.QueueSize <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
