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

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// EventSink publishes committed lifecycle events to downstream consumers
type EventSink interface {
	Publish(ctx context.Context, event models.LifecycleEvent) error
	Close() error
}

// KafkaSink publishes events keyed by user id so one user's events stay ordered
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	metrics  *Metrics
}

func NewKafkaSink(brokers []string, topic string, metrics *Metrics) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_7_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic, metrics), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, metrics *Metrics) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, metrics: metrics}
}

func (k *KafkaSink) Publish(ctx context.Context, event models.LifecycleEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lifecycle event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.UserId),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("reference"), Value: []byte(event.Reference())},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if k.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		k.metrics.PublishTotal.WithLabelValues(k.topic, status).Inc()
	}
	if err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}

	zap.L().Debug("Lifecycle event published",
		zap.String("type", event.Type),
		zap.String("reference", event.Reference()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (k *KafkaSink) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
