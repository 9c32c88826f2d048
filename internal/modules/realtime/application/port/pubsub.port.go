package port

import (
	"context"

	"mesaYaBooking/internal/modules/realtime/domain"
)

// PubSubPort is the contract for consuming change events from the feed (Kafka).
type PubSubPort interface {
	Consume(ctx context.Context, handler func(*domain.Message) error) error
}

// Publisher emits change events to the feed.
type Publisher interface {
	Publish(ctx context.Context, msg *domain.Message) error
}

// Broadcaster pushes messages to connected websocket clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler is registered per feed topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}

// SnapshotRefresher recomputes the live queries affected by a change event.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, msg *domain.Message)
}

// SessionCloser drops every websocket client bound to a session.
type SessionCloser interface {
	CloseSession(sessionID string) int
}

// SessionChecker reports whether a session id is still signed in.
type SessionChecker interface {
	Active(sessionID string) bool
}
