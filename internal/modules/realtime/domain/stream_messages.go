package domain

import (
	"strings"
	"time"
)

// BuildStreamMessage wraps a live query result for delivery to websocket clients.
func BuildStreamMessage(entity, action, resourceID string, data any, at time.Time, extras Metadata) *Message {
	entityName := strings.TrimSpace(entity)
	return &Message{
		Topic:      CustomTopic(entityName, action),
		Entity:     entityName,
		Action:     strings.TrimSpace(action),
		ResourceID: strings.TrimSpace(resourceID),
		Metadata:   mergeInto(nil, extras),
		Data:       data,
		Timestamp:  at.UTC(),
	}
}

// BuildErrorMessage reports a failed command on the entity error topic.
func BuildErrorMessage(entity, action, reason string, at time.Time, extras Metadata) *Message {
	metadata := mergeInto(map[string]string{"action": strings.TrimSpace(action)}, extras)
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		metadata["reason"] = trimmed
	}
	entityName := strings.TrimSpace(entity)
	return &Message{
		Topic:     ErrorTopic(entityName),
		Entity:    entityName,
		Action:    ActionError,
		Metadata:  metadata,
		Data:      map[string]string{"error": reason},
		Timestamp: at.UTC(),
	}
}

func mergeInto(target map[string]string, extras Metadata) map[string]string {
	if len(extras) == 0 {
		return target
	}
	if target == nil {
		target = map[string]string{}
	}
	for key, value := range extras {
		trimmedKey := strings.TrimSpace(key)
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedValue == "" {
			continue
		}
		target[trimmedKey] = trimmedValue
	}
	return target
}
