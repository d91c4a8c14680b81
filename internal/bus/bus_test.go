package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("match.", 10)
	defer unsub()

	b.Emit("match.committed", "payload")

	select {
	case evt := <-ch:
		if evt.Kind != "match.committed" {
			t.Errorf("got kind %q, want match.committed", evt.Kind)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Emit() should stamp the event time")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	b.Emit("match.requested", nil)
	b.Emit("message.sent", nil)

	select {
	case evt := <-ch:
		if evt.Kind != "message.sent" {
			t.Errorf("got kind %q, want message.sent", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the match event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	unsub()

	b.Emit("message.sent", nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 1)
	defer unsub()

	// Fill buffer.
	b.Emit("message.one", nil)
	// This should be dropped (non-blocking).
	b.Emit("message.two", nil)

	evt := <-ch
	if evt.Kind != "message.one" {
		t.Errorf("got %q, want message.one", evt.Kind)
	}
}
