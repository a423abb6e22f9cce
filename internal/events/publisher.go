// Package events delivers change events emitted after acknowledged
// writes. Publishing is decoupled from the write path: a slow or failing
// sink never blocks or fails the write that produced the event.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mango-db/mango/internal/core"
	"go.uber.org/zap"
)

// Sink identifiers accepted by New.
const (
	TypeNone    = "none"
	TypeChannel = "channel"
	TypeKafka   = "kafka"
)

// Config selects and configures an event sink.
type Config struct {
	Type string

	// BufferSize bounds the channel sink.
	BufferSize int

	// Kafka sink settings.
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int
}

// New creates the configured publisher. Type "none" (or empty) returns
// (nil, nil): the caller treats a nil publisher as disabled.
func New(cfg Config, logger *zap.SugaredLogger) (core.EventPublisher, error) {
	switch cfg.Type {
	case "", TypeNone:
		return nil, nil
	case TypeChannel:
		return NewChannel(cfg.BufferSize), nil
	case TypeKafka:
		return NewKafka(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported event sink type: %s", cfg.Type)
	}
}

// Channel is an in-process publisher backed by a bounded channel. When the
// buffer is full the oldest event is discarded in favor of the new one;
// consumers that cannot keep up lose history, not liveness.
type Channel struct {
	mu     sync.Mutex
	ch     chan core.ChangeEvent
	closed bool
}

// NewChannel creates a channel publisher with the given buffer size.
func NewChannel(bufferSize int) *Channel {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Channel{ch: make(chan core.ChangeEvent, bufferSize)}
}

// Events exposes the consuming side.
func (c *Channel) Events() <-chan core.ChangeEvent {
	return c.ch
}

func (c *Channel) Publish(_ context.Context, event core.ChangeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("event channel is closed")
	}
	for {
		select {
		case c.ch <- event:
			return nil
		default:
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}
