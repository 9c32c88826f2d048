package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"mesaYaBooking/internal/modules/realtime/domain"
)

type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Consume reads until ctx is cancelled. Handler errors are logged, not retried.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(*domain.Message) error) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			slog.Warn("kafka read error", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		msg := decodeMessage(m.Topic, m.Value, m.Time)
		slog.Info("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("entity", msg.Entity),
			slog.String("action", msg.Action),
			slog.String("resourceId", msg.ResourceID),
			slog.Any("metadata", msg.Metadata),
		)
		if err := handler(msg); err != nil {
			slog.Warn("kafka handler error", slog.Any("error", err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

type rawEvent struct {
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId"`
	Topic      string            `json:"topic"`
	Metadata   map[string]string `json:"metadata"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp,omitempty"`
}

func decodeMessage(feedTopic string, value []byte, at time.Time) *domain.Message {
	if at.IsZero() {
		at = time.Now()
	}
	msg := &domain.Message{Timestamp: at.UTC()}

	var event rawEvent
	if err := json.Unmarshal(value, &event); err != nil {
		entity, action := inferEntityActionFromTopic(feedTopic)
		msg.Entity = entity
		msg.Action = action
		msg.Topic = domain.CustomTopic(entity, action)
		msg.Data = string(value)
		return msg
	}

	msg.Entity = domain.NormalizeEntity(firstNonEmpty(event.Entity, normalizeTopic(feedTopic)))
	msg.Action = strings.ToLower(firstNonEmpty(event.Action, "unknown"))
	msg.ResourceID = strings.TrimSpace(event.ResourceID)
	msg.Metadata = event.Metadata
	if len(event.Data) > 0 {
		var data any
		if err := json.Unmarshal(event.Data, &data); err == nil {
			msg.Data = data
		}
	}
	if !event.Timestamp.IsZero() {
		msg.Timestamp = event.Timestamp.UTC()
	}

	if event.Topic != "" {
		msg.Topic = event.Topic
	} else {
		msg.Topic = domain.CustomTopic(msg.Entity, msg.Action)
	}

	return msg
}

func inferEntityActionFromTopic(topic string) (string, string) {
	parts := strings.Split(topic, ".")
	if len(parts) >= 3 {
		entity := strings.TrimSpace(parts[len(parts)-2])
		action := strings.TrimSpace(parts[len(parts)-1])
		if entity != "" && action != "" {
			return domain.NormalizeEntity(entity), action
		}
	}
	if entity := normalizeTopic(topic); entity != "" {
		return domain.NormalizeEntity(entity), "unknown"
	}
	return "", "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizeTopic(topic string) string {
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		topic = topic[idx+1:]
	}
	return strings.TrimSpace(topic)
}
