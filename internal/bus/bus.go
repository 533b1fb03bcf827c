// Package bus provides event bus implementations for publishing search
// lifecycle events to downstream consumers.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "search.completed").
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// QueryID links events from the same search.
	QueryID string `json:"query_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event stamped with an ID and the current time.
func NewEvent(eventType, queryID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "trace-search",
		Timestamp: time.Now().UnixMilli(),
		QueryID:   queryID,
		Payload:   payload,
	}
}

// Topics for different event types.
const (
	// Search lifecycle topics.
	TopicSearchRequested = "search.requested"
	TopicSearchCompleted = "search.completed"
	TopicSearchFailed    = "search.failed"

	// Provider topics.
	TopicProviderFailed = "provider.failed"

	// Leak store topics.
	TopicLeaksImported = "leaks.imported"
)
