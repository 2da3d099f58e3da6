package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func testEvent() models.LifecycleEvent {
	return models.LifecycleEvent{
		Type:       models.EventWithdrawalEscrowed,
		UserId:     "user-1",
		EntryId:    "w-1",
		Symbol:     "BTC",
		Amount:     decimal.RequireFromString("0.1"),
		Fee:        decimal.RequireFromString("0.0005"),
		Status:     models.StatusPending,
		OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKafkaSink_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event models.LifecycleEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Reference() != "w-1-withdrawal_escrowed" {
			return fmt.Errorf("unexpected reference %q", event.Reference())
		}
		if !event.Amount.Equal(decimal.RequireFromString("0.1")) {
			return fmt.Errorf("unexpected amount %s", event.Amount)
		}
		return nil
	})

	metrics := NewMetrics(prometheus.NewRegistry())
	sink := NewKafkaSinkWithProducer(producer, "wallet.lifecycle", metrics)

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if got := testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("wallet.lifecycle", "success")); got != 1 {
		t.Errorf("Expected 1 successful publish, got %v", got)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestKafkaSink_PublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	metrics := NewMetrics(prometheus.NewRegistry())
	sink := NewKafkaSinkWithProducer(producer, "wallet.lifecycle", metrics)

	err := sink.Publish(context.Background(), testEvent())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("Expected ErrOutOfBrokers, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("wallet.lifecycle", "error")); got != 1 {
		t.Errorf("Expected 1 failed publish, got %v", got)
	}
	sink.Close()
}

func TestKafkaSink_CancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sink := NewKafkaSinkWithProducer(producer, "wallet.lifecycle", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Publish(ctx, testEvent()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	sink.Close()
}
