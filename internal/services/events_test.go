package services

import (
	"testing"
	"time"
)

func TestEventHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewEventHub()

	hub.Subscribe("s1", "tab1")
	hub.Subscribe("s1", "tab2")
	hub.Subscribe("s2", "tab1")
	if hub.ClientCount("s1") != 2 || hub.ClientCount("s2") != 1 {
		t.Fatalf("unexpected counts %d/%d", hub.ClientCount("s1"), hub.ClientCount("s2"))
	}

	hub.Unsubscribe("s1", "tab1")
	if hub.ClientCount("s1") != 1 {
		t.Errorf("expected 1 stream after unsubscribe, got %d", hub.ClientCount("s1"))
	}
	hub.Unsubscribe("s1", "missing")
	if hub.ClientCount("s1") != 1 {
		t.Errorf("unsubscribing unknown stream changed count to %d", hub.ClientCount("s1"))
	}
}

func TestEventHub_PublishIsPerSession(t *testing.T) {
	hub := NewEventHub()
	mine := hub.Subscribe("s1", "tab")
	other := hub.Subscribe("s2", "tab")

	hub.Publish("s1", SessionEvent{Type: EventBadge, Data: true})

	select {
	case ev := <-mine:
		if ev.Type != EventBadge || ev.Data != true {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-other:
		t.Errorf("event leaked to another session: %+v", ev)
	default:
	}
}

func TestEventHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewEventHub()
	hub.Subscribe("s1", "slow")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish("s1", SessionEvent{Type: EventBadge})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full stream")
	}
}

func TestEventHub_CloseSession(t *testing.T) {
	hub := NewEventHub()
	ch := hub.Subscribe("s1", "tab")

	hub.CloseSession("s1")

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	if hub.ClientCount("s1") != 0 {
		t.Error("session streams should be gone")
	}
	hub.Unsubscribe("s1", "tab")
}
