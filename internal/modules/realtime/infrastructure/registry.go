package infrastructure

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/domain"
)

// HandlerRegistry routes change events by feed topic (for example "mesaya.bookings").
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.TrimSpace(h.Topic())] = h
}

// Topics lists the registered feed topics.
func (r *HandlerRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	return topics
}

func (r *HandlerRegistry) Dispatch(ctx context.Context, topic string, msg *domain.Message) error {
	r.mu.RLock()
	handler, ok := r.handlers[strings.TrimSpace(topic)]
	r.mu.RUnlock()
	if !ok {
		slog.Debug("no handler for topic", slog.String("topic", topic))
		return nil
	}
	return handler.Handle(ctx, msg)
}
