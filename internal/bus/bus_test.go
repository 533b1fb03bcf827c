package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	// Subscribe to topic
	err := bus.Subscribe(context.Background(), TopicSearchCompleted, func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Publish events
	wg.Add(3)
	for i := 0; i < 3; i++ {
		err := bus.Publish(context.Background(), TopicSearchCompleted, NewEvent("search.completed", "q-1", nil))
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	// Wait for handlers
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for events")
	}

	if got := received.Load(); got != 3 {
		t.Errorf("Received %d events, want 3", got)
	}
}

func TestMemoryBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var count1, count2 atomic.Int32
	var wg sync.WaitGroup

	// First subscriber
	bus.Subscribe(context.Background(), TopicSearchRequested, func(ctx context.Context, event Event) error {
		count1.Add(1)
		wg.Done()
		return nil
	})

	// Second subscriber
	bus.Subscribe(context.Background(), TopicSearchRequested, func(ctx context.Context, event Event) error {
		count2.Add(1)
		wg.Done()
		return nil
	})

	// Publish one event - both subscribers should receive
	wg.Add(2)
	bus.Publish(context.Background(), TopicSearchRequested, NewEvent("search.requested", "q-1", nil))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout")
	}

	if count1.Load() != 1 || count2.Load() != 1 {
		t.Errorf("Expected both subscribers to receive 1 event, got %d and %d", count1.Load(), count2.Load())
	}
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	// Publishing to a topic with no subscribers should not error
	err := bus.Publish(context.Background(), "empty.topic", NewEvent("test", "", nil))
	if err != nil {
		t.Errorf("Publish() to empty topic error = %v", err)
	}
}

func TestMemoryBus_ClosedRejectsPublish(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	err := bus.Publish(context.Background(), TopicSearchCompleted, NewEvent("test", "", nil))
	if err == nil {
		t.Error("Expected error publishing to a closed bus")
	}

	err = bus.Subscribe(context.Background(), TopicSearchCompleted, func(ctx context.Context, event Event) error {
		return nil
	})
	if err == nil {
		t.Error("Expected error subscribing to a closed bus")
	}
}

func TestMemoryBus_DrainTimeout(t *testing.T) {
	bus := NewMemoryBus()

	release := make(chan struct{})
	bus.Subscribe(context.Background(), TopicSearchCompleted, func(ctx context.Context, event Event) error {
		<-release
		return nil
	})

	bus.Publish(context.Background(), TopicSearchCompleted, NewEvent("test", "q-1", nil))

	// Handler is blocked, drain should time out
	if bus.DrainTimeout(50 * time.Millisecond) {
		t.Error("Expected drain to time out with a blocked handler")
	}

	close(release)

	// Handler released, drain should complete
	if !bus.DrainTimeout(time.Second) {
		t.Error("Expected drain to complete after handler finished")
	}

	bus.Close()
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UnixMilli()
	event := NewEvent("search.completed", "q-1", map[string]any{"total": 5})
	after := time.Now().UnixMilli()

	if event.ID == "" {
		t.Error("Expected a generated event ID")
	}
	if event.Type != "search.completed" {
		t.Errorf("Type = %s, want search.completed", event.Type)
	}
	if event.Source != "trace-search" {
		t.Errorf("Source = %s, want trace-search", event.Source)
	}
	if event.QueryID != "q-1" {
		t.Errorf("QueryID = %s, want q-1", event.QueryID)
	}
	if event.Timestamp < before || event.Timestamp > after {
		t.Errorf("Timestamp %d outside [%d, %d]", event.Timestamp, before, after)
	}

	// IDs must be unique
	other := NewEvent("search.completed", "q-1", nil)
	if other.ID == event.ID {
		t.Error("Expected distinct event IDs")
	}
}
