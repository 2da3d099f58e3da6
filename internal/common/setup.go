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

package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"wallet-lifecycle-go/internal/api"
	"wallet-lifecycle-go/internal/database"
	"wallet-lifecycle-go/internal/formance"
	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/notify"
	"wallet-lifecycle-go/internal/prime"
	"wallet-lifecycle-go/internal/rate"
	"wallet-lifecycle-go/internal/security"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService  *database.Service
	Ledger     *api.LedgerService
	Notifier   *notify.Service
	Dispatcher *notify.Dispatcher
	Registry   *prometheus.Registry

	redis *redis.Client
}

// InitializeLogger installs the global zap logger. LOG_LEVEL=debug switches
// to the development encoder.
func InitializeLogger() (*zap.Logger, func()) {
	var (
		logger *zap.Logger
		err    error
	)
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, the attempt limiters, the
// notification pipeline and the payment rail into a LedgerService. The
// dispatcher is started on ctx; call Close to drain it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	services := &Services{DbService: dbService, Registry: prometheus.NewRegistry()}
	services.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pinLimiter, loginLimiter, resetLimiter := services.limiters(cfg.Security)

	metrics := notify.NewMetrics(services.Registry)
	services.Dispatcher = notify.NewDispatcher(notify.DispatcherConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		TaskTimeout: cfg.Notify.TaskTimeout,
		BaseBackoff: cfg.Notify.BaseBackoff,
	}, metrics)

	opts, err := notifyOptions(ctx, cfg, metrics)
	if err != nil {
		services.Close(ctx)
		return nil, err
	}
	services.Notifier = notify.NewService(services.Dispatcher, dbService, opts)

	rail, err := initializeRail(ctx, cfg.Prime)
	if err != nil {
		services.Close(ctx)
		return nil, err
	}

	services.Dispatcher.Start(ctx)

	services.Ledger = api.NewLedgerService(dbService, api.Dependencies{
		Hasher:       NewHasher(cfg.Security),
		PinLimiter:   pinLimiter,
		LoginLimiter: loginLimiter,
		ResetLimiter: resetLimiter,
		Rail:         rail,
		Notifier:     services.Notifier,
	}, api.Settings{
		SessionTtl:           cfg.Server.SessionTtl,
		OtpTtl:               cfg.Otp.Ttl,
		OtpMaxAttempts:       cfg.Otp.MaxAttempts,
		OtpDigits:            cfg.Otp.Digits,
		DepositConfirmations: cfg.Lifecycle.DepositConfirmations,
	})

	return services, nil
}

// NewHasher applies the configured argon2 cost to the default parameters
func NewHasher(cfg models.SecurityConfig) *security.Hasher {
	params := security.DefaultParams()
	if cfg.Argon2MemoryKb > 0 {
		params.Memory = cfg.Argon2MemoryKb
	}
	if cfg.Argon2Iterations > 0 {
		params.Iterations = cfg.Argon2Iterations
	}
	return security.NewHasher(params)
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

// Close drains pending notifications, then releases the sink and the database
func (s *Services) Close(ctx context.Context) {
	if s.Dispatcher != nil {
		if err := s.Dispatcher.Stop(ctx); err != nil {
			zap.L().Warn("Notification dispatcher did not stop cleanly", zap.Error(err))
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.Close(); err != nil {
			zap.L().Warn("Failed to close event sink", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if s.DbService != nil {
		s.DbService.Close()
	}
}

// limiters returns the pin, login and password reset limiters
func (s *Services) limiters(cfg models.SecurityConfig) (rate.Limiter, rate.Limiter, rate.Limiter) {
	if cfg.RedisAddr == "" {
		zap.L().Info("Using in-memory attempt limiter")
		return rate.NewMemory(cfg.PinMaxAttempts, cfg.PinLockoutWindow),
			rate.NewMemory(cfg.LoginMaxAttempts, cfg.LoginLockoutWindow),
			rate.NewMemory(cfg.ResetMaxRequests, cfg.ResetWindow)
	}

	zap.L().Info("Using redis attempt limiter", zap.String("addr", cfg.RedisAddr))
	s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return rate.NewRedisLimiter(s.redis, cfg.PinMaxAttempts, cfg.PinLockoutWindow, "wallet:attempts:"),
		rate.NewRedisLimiter(s.redis, cfg.LoginMaxAttempts, cfg.LoginLockoutWindow, "wallet:attempts:"),
		rate.NewRedisLimiter(s.redis, cfg.ResetMaxRequests, cfg.ResetWindow, "wallet:attempts:")
}

func notifyOptions(ctx context.Context, cfg *models.Config, metrics *notify.Metrics) (notify.Options, error) {
	var opts notify.Options

	if cfg.Smtp.Host != "" {
		templates, err := notify.LoadTemplates()
		if err != nil {
			return opts, err
		}
		opts.Templates = templates
		opts.Mailer = notify.NewSMTPMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
		zap.L().Info("Email delivery enabled", zap.String("smtp_host", cfg.Smtp.Host))
	} else {
		zap.L().Info("SMTP_HOST not set, email delivery disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, metrics)
		if err != nil {
			return opts, err
		}
		opts.Sink = sink
		zap.L().Info("Kafka event sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Formance.Enabled() {
		mirror, err := formance.NewMirror(ctx, cfg.Formance)
		if err != nil {
			if opts.Sink != nil {
				_ = opts.Sink.Close()
			}
			return opts, err
		}
		opts.Mirror = mirror
	}

	return opts, nil
}

func initializeRail(ctx context.Context, cfg models.PrimeConfig) (prime.Rail, error) {
	if !cfg.Enabled() {
		zap.L().Warn("Prime credentials not set, using placeholder payment rail")
		return prime.NewPlaceholderRail(), nil
	}

	zap.L().Info("Loading Prime wallets", zap.String("file", cfg.WalletsFile))
	wallets, err := LoadPrimeWallets(cfg.WalletsFile)
	if err != nil {
		return nil, err
	}
	return prime.NewService(ctx, loadPrimeCredentials(cfg), cfg.PortfolioId, wallets)
}

func loadPrimeCredentials(cfg models.PrimeConfig) *credentials.Credentials {
	return &credentials.Credentials{
		AccessKey:  cfg.AccessKey,
		Passphrase: cfg.Passphrase,
		SigningKey: cfg.SigningKey,
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}

// AdminSession opens a short session for a local operator acting as the
// admin account with the given email
func AdminSession(ctx context.Context, db *database.Service, email string, ttl time.Duration) (string, error) {
	user, err := db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("admin lookup failed: %w", err)
	}
	if !user.IsAdmin {
		return "", fmt.Errorf("%s is not an admin", user.Email)
	}

	token, err := security.SessionToken()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if err := db.CreateSession(ctx, models.Session{Token: token, UserId: user.Id, CreatedAt: now, ExpiresAt: now.Add(ttl)}); err != nil {
		return "", err
	}
	return token, nil
}
