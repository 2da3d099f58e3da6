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

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts dispatcher outcomes per task kind
type Metrics struct {
	Tasks        *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	QueueDepth   prometheus.Gauge
	PublishTotal *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_tasks_total",
				Help: "Notification tasks by kind and outcome (queued, succeeded, retried, failed, dropped).",
			},
			[]string{"kind", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notify_task_duration_seconds",
				Help:    "Duration of a single notification task attempt.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "notify_queue_depth",
				Help: "Tasks waiting in the notification queue.",
			},
		),
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_publish_total",
				Help: "Total Kafka publish attempts.",
			},
			[]string{"topic", "status"},
		),
	}

	registry.MustRegister(m.Tasks, m.Duration, m.QueueDepth, m.PublishTotal)
	return m
}
