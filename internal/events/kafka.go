package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mango-db/mango/internal/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka publishes change events to a Kafka topic, keyed by collection so
// per-collection ordering is preserved within a partition. The ODM only
// produces; consuming is the subscriber's business.
type Kafka struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
	mu     sync.RWMutex
	closed bool
}

// NewKafka creates a Kafka publisher.
func NewKafka(cfg Config, logger *zap.SugaredLogger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka events: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka events: topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Async:        true,
	}

	logger.Infow("change event publisher ready",
		"sink", TypeKafka, "topic", cfg.Topic, "brokers", cfg.Brokers)
	return &Kafka{writer: writer, logger: logger}, nil
}

func (k *Kafka) Publish(ctx context.Context, event core.ChangeEvent) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return fmt.Errorf("kafka events: publisher is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka events: encode: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Collection),
		Value: value,
	})
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	return k.writer.Close()
}
