package liveevents

import (
	"fmt"
	"testing"
	"time"
)

func TestHubBacklogIsBoundedPerRoom(t *testing.T) {
	hub := NewHub()
	for i := 0; i < DefaultBufferSize+5; i++ {
		hub.Publish(Reading{ID: fmt.Sprint(i), RoomID: "1"})
	}
	hub.Publish(Reading{ID: "other", RoomID: "2"})

	sub, backlog, err := hub.Subscribe("1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if len(backlog) != DefaultBufferSize {
		t.Fatalf("expected %d backlog entries, got %d", DefaultBufferSize, len(backlog))
	}
	if backlog[0].ID != "5" {
		t.Fatalf("expected oldest retained reading 5, got %s", backlog[0].ID)
	}
}

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	sub, _, err := hub.Subscribe("7")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub.Publish(Reading{ID: "a", RoomID: "7", EnergyConsumed: 1.25})
	hub.Publish(Reading{ID: "b", RoomID: "8"})

	select {
	case got := <-sub.Events():
		if got.ID != "a" || got.EnergyConsumed != 1.25 {
			t.Fatalf("unexpected reading: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reading")
	}

	select {
	case got := <-sub.Events():
		t.Fatalf("reading from another room leaked: %+v", got)
	default:
	}

	sub.Close()
	sub.Close()
	if n := hub.Subscribers("7"); n != 0 {
		t.Fatalf("expected no subscribers after close, got %d", n)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	sub, _, err := hub.Subscribe("3")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultSubscriberBuffer*4; i++ {
			hub.Publish(Reading{RoomID: "3"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	if len(sub.Events()) != DefaultSubscriberBuffer {
		t.Fatalf("expected full subscriber buffer, got %d", len(sub.Events()))
	}
}

func TestSubscribeRejectsEmptyRoom(t *testing.T) {
	if _, _, err := NewHub().Subscribe(" "); err != ErrInvalidRoom {
		t.Fatalf("expected ErrInvalidRoom, got %v", err)
	}
}
