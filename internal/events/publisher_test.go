package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mango-db/mango/internal/core"
	"go.uber.org/zap"
)

func TestNewDisabled(t *testing.T) {
	for _, typ := range []string{"", TypeNone} {
		pub, err := New(Config{Type: typ}, zap.NewNop().Sugar())
		if err != nil {
			t.Fatalf("New(%q): %v", typ, err)
		}
		if pub != nil {
			t.Fatalf("New(%q): expected nil publisher", typ)
		}
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "pigeon"}, zap.NewNop().Sugar()); err == nil {
		t.Fatal("expected error for unknown sink type")
	}
}

func TestChannelPublish(t *testing.T) {
	c := NewChannel(4)
	ctx := context.Background()

	event := core.ChangeEvent{
		Collection: "users",
		Operation:  "insert",
		DocumentID: "1",
		Timestamp:  time.Now(),
	}
	if err := c.Publish(ctx, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-c.Events():
		if got.Collection != "users" || got.Operation != "insert" {
			t.Fatalf("got %+v", got)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestChannelDropsOldestWhenFull(t *testing.T) {
	c := NewChannel(2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		event := core.ChangeEvent{Collection: "users", DocumentID: fmt.Sprint(i)}
		if err := c.Publish(ctx, event); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}

	// The buffer holds the two newest events; the oldest three were
	// discarded to keep publishing non-blocking.
	first := <-c.Events()
	second := <-c.Events()
	if first.DocumentID != "3" || second.DocumentID != "4" {
		t.Fatalf("got %s, %s; want 3, 4", first.DocumentID, second.DocumentID)
	}
}

func TestChannelClose(t *testing.T) {
	c := NewChannel(1)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := c.Publish(context.Background(), core.ChangeEvent{}); err == nil {
		t.Fatal("expected error publishing to a closed channel")
	}

	if _, open := <-c.Events(); open {
		t.Fatal("events channel should be closed")
	}
}
