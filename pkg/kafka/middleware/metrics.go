package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"reservatec/pkg/kafka"
)

// Metrics holds Kafka operation counters. Safe for concurrent use.
type Metrics struct {
	MessagesPublished       atomic.Int64
	MessagesPublishedFailed atomic.Int64
	PublishDurationTotal    atomic.Int64 // nanoseconds

	MessagesConsumed       atomic.Int64
	MessagesConsumedFailed atomic.Int64
	ConsumeDurationTotal   atomic.Int64 // nanoseconds
}

type MetricsSnapshot struct {
	Published          int64         `json:"published"`
	PublishFailed      int64         `json:"publish_failed"`
	AvgPublishDuration time.Duration `json:"avg_publish_duration_ns"`
	Consumed           int64         `json:"consumed"`
	ConsumeFailed      int64         `json:"consume_failed"`
	AvgConsumeDuration time.Duration `json:"avg_consume_duration_ns"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Reset() {
	m.MessagesPublished.Store(0)
	m.MessagesPublishedFailed.Store(0)
	m.PublishDurationTotal.Store(0)
	m.MessagesConsumed.Store(0)
	m.MessagesConsumedFailed.Store(0)
	m.ConsumeDurationTotal.Store(0)
}

func (m *Metrics) AvgPublishDuration() time.Duration {
	published := m.MessagesPublished.Load() + m.MessagesPublishedFailed.Load()
	if published == 0 {
		return 0
	}
	return time.Duration(m.PublishDurationTotal.Load() / published)
}

func (m *Metrics) AvgConsumeDuration() time.Duration {
	consumed := m.MessagesConsumed.Load() + m.MessagesConsumedFailed.Load()
	if consumed == 0 {
		return 0
	}
	return time.Duration(m.ConsumeDurationTotal.Load() / consumed)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Published:          m.MessagesPublished.Load(),
		PublishFailed:      m.MessagesPublishedFailed.Load(),
		AvgPublishDuration: m.AvgPublishDuration(),
		Consumed:           m.MessagesConsumed.Load(),
		ConsumeFailed:      m.MessagesConsumedFailed.Load(),
		AvgConsumeDuration: m.AvgConsumeDuration(),
	}
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		m.PublishDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.MessagesPublishedFailed.Add(1)
		} else {
			m.MessagesPublished.Add(1)
		}

		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		m.ConsumeDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.MessagesConsumedFailed.Add(1)
		} else {
			m.MessagesConsumed.Add(1)
		}

		return err
	}
}
