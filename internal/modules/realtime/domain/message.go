package domain

import (
	"strings"
	"time"
)

// Metadata carries routing attributes such as userId, sessionId, streamId and restaurantId.
type Metadata map[string]string

// Message is the envelope shared by the change feed and websocket clients.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewChangeEvent builds the message published after a document write.
func NewChangeEvent(entity, action, resourceID string, metadata Metadata, data any, at time.Time) *Message {
	entity = strings.TrimSpace(entity)
	action = strings.ToLower(strings.TrimSpace(action))
	return &Message{
		Topic:      CustomTopic(entity, action),
		Entity:     entity,
		Action:     action,
		ResourceID: strings.TrimSpace(resourceID),
		Metadata:   mergeInto(nil, metadata),
		Data:       data,
		Timestamp:  at.UTC(),
	}
}

// Meta returns the trimmed metadata value for key.
func (m *Message) Meta(key string) string {
	if m == nil || m.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(m.Metadata[key])
}
