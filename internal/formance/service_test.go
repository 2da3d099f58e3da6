package formance

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"USDC", "USDC/6"},
		{"BTC", "BTC/8"},
		{"ETH", "ETH/18"},
		{"USD", "USD/2"},
		{"UNKNOWN", "UNKNOWN/6"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestSmallestUnits(t *testing.T) {
	tests := []struct {
		amount string
		symbol string
		want   string
	}{
		{"1", "USDC", "1000000"},
		{"0.1005", "BTC", "10050000"},
		{"500", "USD", "50000"},
		{"0.12", "USD", "12"},
	}
	for _, tt := range tests {
		got, err := smallestUnits(decimal.RequireFromString(tt.amount), tt.symbol)
		if err != nil || got != tt.want {
			t.Errorf("smallestUnits(%s, %s) = %s, %v, want %s", tt.amount, tt.symbol, got, err, tt.want)
		}
	}

	for _, tt := range []struct{ amount, symbol string }{
		{"0.000000001", "BTC"},
		{"0.125", "USD"},
		{"1.0000001", "USDC"},
	} {
		if _, err := smallestUnits(decimal.RequireFromString(tt.amount), tt.symbol); !errors.Is(err, ErrNotRepresentable) {
			t.Errorf("smallestUnits(%s, %s): expected ErrNotRepresentable, got %v", tt.amount, tt.symbol, err)
		}
	}
}

func TestIsConflictError(t *testing.T) {
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if !isConflictError(&sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumConflict}) {
		t.Error("expected CONFLICT to be detected")
	}
	if isConflictError(errors.New("boom")) {
		t.Error("plain error should not be a conflict")
	}
}

func withdrawalEvent(eventType string) models.LifecycleEvent {
	return models.LifecycleEvent{
		Type:       eventType,
		UserId:     "user1",
		EntryId:    "w1",
		Symbol:     "btc",
		Amount:     decimal.RequireFromString("0.1"),
		Fee:        decimal.RequireFromString("0.0005"),
		TxHash:     "0xabc",
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildTransaction(t *testing.T) {
	tests := []struct {
		eventType string
		script    string
		amount    string
	}{
		{models.EventWithdrawalEscrowed, numscriptEscrow, "10050000"},
		{models.EventWithdrawalReleased, numscriptRelease, "10000000"},
		{models.EventWithdrawalRefunded, numscriptRefund, "10050000"},
		{models.EventHoldingCredited, numscriptAdjustment, "10000000"},
	}
	for _, tt := range tests {
		tx, err := buildTransaction(withdrawalEvent(tt.eventType))
		if err != nil || tx == nil {
			t.Fatalf("%s: expected a posting, got %v", tt.eventType, err)
		}
		if tx.Script.Plain != tt.script {
			t.Errorf("%s: unexpected script", tt.eventType)
		}
		if tx.Script.Vars["amount"] != tt.amount || tx.Script.Vars["asset"] != "BTC/8" {
			t.Errorf("%s: unexpected vars %v", tt.eventType, tx.Script.Vars)
		}
		if *tx.Reference != "w1-"+tt.eventType {
			t.Errorf("%s: unexpected reference %s", tt.eventType, *tx.Reference)
		}
		if tx.Timestamp == nil || !tx.Timestamp.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: unexpected timestamp %v", tt.eventType, tx.Timestamp)
		}
	}

	release, _ := buildTransaction(withdrawalEvent(models.EventWithdrawalReleased))
	if release.Script.Vars["fee"] != "50000" || release.Script.Vars["tx_hash"] != "0xabc" {
		t.Errorf("unexpected release vars %v", release.Script.Vars)
	}

	deposit := models.LifecycleEvent{
		Type: models.EventDepositApproved, UserId: "user1", EntryId: "d1", Symbol: "USDT",
		Amount: decimal.RequireFromString("500"),
	}
	tx, err := buildTransaction(deposit)
	if err != nil || tx == nil {
		t.Fatalf("expected a deposit posting, got %v", err)
	}
	if tx.Script.Vars["asset"] != "USD/2" || tx.Script.Vars["amount"] != "50000" {
		t.Errorf("unexpected deposit posting %+v", tx.Script)
	}
	if tx.Timestamp != nil {
		t.Error("expected no timestamp for zero OccurredAt")
	}

	for _, skipped := range []string{models.EventDepositSubmitted, models.EventDepositRejected} {
		if tx, err := buildTransaction(models.LifecycleEvent{Type: skipped}); tx != nil || err != nil {
			t.Errorf("%s: expected no posting, got %v", skipped, err)
		}
	}
}

func TestMirrorPost(t *testing.T) {
	var posted []shared.V2PostTransaction
	m := &Mirror{ledger: "test", post: func(ctx context.Context, tx shared.V2PostTransaction) error {
		posted = append(posted, tx)
		return nil
	}}

	if err := m.Post(context.Background(), withdrawalEvent(models.EventWithdrawalEscrowed)); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := m.Post(context.Background(), models.LifecycleEvent{Type: models.EventDepositSubmitted}); err != nil {
		t.Fatalf("Post of non-posting event failed: %v", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(posted))
	}
}

func TestMirrorPost_ConflictIsSuccess(t *testing.T) {
	m := &Mirror{ledger: "test", post: func(ctx context.Context, tx shared.V2PostTransaction) error {
		return &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumConflict}
	}}
	if err := m.Post(context.Background(), withdrawalEvent(models.EventWithdrawalRefunded)); err != nil {
		t.Errorf("expected conflict to be treated as success, got %v", err)
	}

	m.post = func(ctx context.Context, tx shared.V2PostTransaction) error {
		return errors.New("503 service unavailable")
	}
	if err := m.Post(context.Background(), withdrawalEvent(models.EventWithdrawalRefunded)); err == nil {
		t.Error("expected error to surface for retry")
	}
}

func TestMirrorPost_RefusesSubUnitAmounts(t *testing.T) {
	var posted int
	m := &Mirror{ledger: "test", post: func(ctx context.Context, tx shared.V2PostTransaction) error {
		posted++
		return nil
	}}

	event := withdrawalEvent(models.EventWithdrawalReleased)
	event.Fee = decimal.RequireFromString("0.000000005")
	if err := m.Post(context.Background(), event); !errors.Is(err, ErrNotRepresentable) {
		t.Errorf("expected ErrNotRepresentable, got %v", err)
	}
	if posted != 0 {
		t.Errorf("expected nothing posted, got %d", posted)
	}
}
