package prime

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"wallet-lifecycle-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/shopspring/decimal"
)

func TestBlockchainAddress(t *testing.T) {
	tests := []struct {
		network  string
		wantId   string
		wantType string
		wantNil  bool
	}{
		{"ethereum-mainnet", "ethereum", "mainnet", false},
		{"base-sepolia", "base", "sepolia", false},
		{"bitcoin", "", "", true},
		{"-mainnet", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		addr := blockchainAddress("0xdest", tt.network)
		if addr.Address != "0xdest" {
			t.Errorf("network %q: unexpected address %q", tt.network, addr.Address)
		}
		if tt.wantNil {
			if addr.Network != nil {
				t.Errorf("network %q: expected no network details, got %+v", tt.network, addr.Network)
			}
			continue
		}
		if addr.Network == nil || addr.Network.Id != tt.wantId || addr.Network.Type != tt.wantType {
			t.Errorf("network %q: unexpected details %+v", tt.network, addr.Network)
		}
	}
}

func testPayout() models.Payout {
	return models.Payout{
		UserId:         "user-1",
		Symbol:         "eth",
		Amount:         decimal.RequireFromString("1.25"),
		Address:        "0xdest",
		Network:        "ethereum-mainnet",
		IdempotencyKey: "w-1",
	}
}

func TestSend(t *testing.T) {
	var captured *transactions.CreateWalletWithdrawalRequest
	s := &Service{
		portfolioId: "pf-1",
		wallets:     normalizeWallets(map[string]string{"eth": "wallet-eth"}),
		createWithdrawal: func(ctx context.Context, req *transactions.CreateWalletWithdrawalRequest) (string, error) {
			captured = req
			return "activity-1", nil
		},
	}

	hash, err := s.Send(context.Background(), testPayout())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if hash != "activity-1" {
		t.Errorf("Expected activity-1, got %s", hash)
	}
	if captured.PortfolioId != "pf-1" || captured.SourceWalletId != "wallet-eth" {
		t.Errorf("Unexpected routing: %+v", captured)
	}
	if captured.Symbol != "ETH" || captured.Amount != "1.25" || captured.IdempotencyKey != "w-1" {
		t.Errorf("Unexpected request: %+v", captured)
	}
	if captured.DestinationType != "DESTINATION_BLOCKCHAIN" {
		t.Errorf("Unexpected destination type %q", captured.DestinationType)
	}
}

func TestSend_Errors(t *testing.T) {
	s := &Service{
		wallets: map[string]string{"ETH": "wallet-eth"},
		createWithdrawal: func(ctx context.Context, req *transactions.CreateWalletWithdrawalRequest) (string, error) {
			return "", errors.New("401 unauthorized")
		},
	}

	if _, err := s.Send(context.Background(), testPayout()); !errors.Is(err, ErrRail) {
		t.Errorf("Expected ErrRail for API failure, got %v", err)
	}

	payout := testPayout()
	payout.Symbol = "SOL"
	if _, err := s.Send(context.Background(), payout); !errors.Is(err, ErrRail) {
		t.Errorf("Expected ErrRail for unknown wallet, got %v", err)
	}
}

func TestPlaceholderRail(t *testing.T) {
	rail := NewPlaceholderRail()
	hashPattern := regexp.MustCompile(`^0x[0-9a-f]{64}$`)

	first, err := rail.Send(context.Background(), testPayout())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !hashPattern.MatchString(first) {
		t.Errorf("Unexpected hash format %q", first)
	}

	again, _ := rail.Send(context.Background(), testPayout())
	if again != first {
		t.Errorf("Expected same hash for same idempotency key, got %s and %s", first, again)
	}

	other := testPayout()
	other.IdempotencyKey = "w-2"
	second, _ := rail.Send(context.Background(), other)
	if second == first {
		t.Error("Expected a different hash for a different key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rail.Send(ctx, other); !errors.Is(err, ErrRail) {
		t.Errorf("Expected ErrRail on cancelled context, got %v", err)
	}
}
