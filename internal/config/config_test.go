package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Security.PinMaxAttempts != 5 {
		t.Errorf("Expected PinMaxAttempts 5, got %d", cfg.Security.PinMaxAttempts)
	}
	if cfg.Security.PinLockoutWindow != 15*time.Minute {
		t.Errorf("Expected PinLockoutWindow 15m, got %v", cfg.Security.PinLockoutWindow)
	}
	if cfg.Security.ResetMaxRequests != 3 || cfg.Security.ResetWindow != time.Hour {
		t.Errorf("Expected 3 reset requests per hour, got %d per %v", cfg.Security.ResetMaxRequests, cfg.Security.ResetWindow)
	}
	if cfg.Otp.Ttl != 15*time.Minute {
		t.Errorf("Expected OTP TTL 15m, got %v", cfg.Otp.Ttl)
	}
	if cfg.Otp.MaxAttempts != 5 {
		t.Errorf("Expected OTP max attempts 5, got %d", cfg.Otp.MaxAttempts)
	}
	if cfg.Lifecycle.DepositConfirmations != 3 {
		t.Errorf("Expected 3 deposit confirmations, got %d", cfg.Lifecycle.DepositConfirmations)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("PIN_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Otp.Ttl != 5*time.Minute {
		t.Errorf("Expected OTP TTL 5m, got %v", cfg.Otp.Ttl)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("Unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Security.PinMaxAttempts != 3 {
		t.Errorf("Expected PinMaxAttempts 3, got %d", cfg.Security.PinMaxAttempts)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error for invalid duration")
	}
}

func TestLoad_InvalidAttempts(t *testing.T) {
	t.Setenv("OTP_MAX_ATTEMPTS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error for zero OTP attempts")
	}
}
