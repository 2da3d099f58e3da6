package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoadPaymentMethods(t *testing.T) {
	path := writeTemp(t, `
payment_methods:
  - id: btc-main
    kind: crypto
    name: Bitcoin
    symbol: btc
    network: bitcoin
    address: bc1qexample
  - id: wire
    kind: bank
    name: Bank wire
    details:
      iban: DE00123
    inactive: true
`)
	methods, err := LoadPaymentMethods(path)
	if err != nil {
		t.Fatalf("LoadPaymentMethods failed: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("Expected 2 methods, got %d", len(methods))
	}
	if methods[0].Symbol != "BTC" || !methods[0].IsActive || methods[0].SortOrder != 0 {
		t.Errorf("Unexpected first method: %+v", methods[0])
	}
	if methods[1].IsActive || methods[1].Details["iban"] != "DE00123" {
		t.Errorf("Unexpected second method: %+v", methods[1])
	}
}

func TestLoadPaymentMethods_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":     "payment_methods:\n  - kind: bank\n",
		"duplicate id":   "payment_methods:\n  - {id: a, kind: bank}\n  - {id: a, kind: bank}\n",
		"unknown kind":   "payment_methods:\n  - {id: a, kind: cash}\n",
		"crypto no addr": "payment_methods:\n  - {id: a, kind: crypto, symbol: BTC, network: bitcoin}\n",
	}
	for name, content := range tests {
		if _, err := LoadPaymentMethods(writeTemp(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadPrimeWallets(t *testing.T) {
	path := writeTemp(t, "wallets:\n  - {symbol: eth, wallet_id: w-eth}\n  - {symbol: BTC, wallet_id: w-btc}\n")
	wallets, err := LoadPrimeWallets(path)
	if err != nil {
		t.Fatalf("LoadPrimeWallets failed: %v", err)
	}
	if wallets["ETH"] != "w-eth" || wallets["BTC"] != "w-btc" {
		t.Errorf("Unexpected wallets: %v", wallets)
	}

	if _, err := LoadPrimeWallets(writeTemp(t, "wallets:\n  - {symbol: BTC}\n")); err == nil {
		t.Error("Expected error for missing wallet_id")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadPrimeWallets(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "unable to read") {
		t.Errorf("Expected read error, got %v", err)
	}
}
