package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/domain"
)

// TopicResolver maps an entity name to its feed topic.
type TopicResolver func(entity string) string

// KafkaPublisher writes change events to the entity's feed topic, keyed by resource id.
type KafkaPublisher struct {
	writer  *kafka.Writer
	resolve TopicResolver
}

func NewKafkaPublisher(brokers []string, resolve TopicResolver) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		resolve: resolve,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	topic := p.resolve(msg.Entity)
	if topic == "" {
		return fmt.Errorf("no feed topic for entity %q", msg.Entity)
	}
	value, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.ResourceID),
		Value: value,
		Time:  msg.Timestamp,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Topic, err)
	}
	slog.Debug("kafka message published", slog.String("topic", topic), slog.String("event", msg.Topic), slog.String("resourceId", msg.ResourceID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeMessage(msg *domain.Message) ([]byte, error) {
	event := rawEvent{
		Entity:     msg.Entity,
		Action:     msg.Action,
		ResourceID: msg.ResourceID,
		Topic:      msg.Topic,
		Metadata:   msg.Metadata,
		Timestamp:  msg.Timestamp,
	}
	if msg.Data != nil {
		data, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("encode event data: %w", err)
		}
		event.Data = data
	}
	return json.Marshal(event)
}

// Dispatcher receives events published without a broker.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic string, msg *domain.Message) error
}

// LocalPublisher hands events straight to the in-process handlers. Used when
// no Kafka brokers are configured.
type LocalPublisher struct {
	dispatcher Dispatcher
	resolve    TopicResolver
}

func NewLocalPublisher(dispatcher Dispatcher, resolve TopicResolver) *LocalPublisher {
	return &LocalPublisher{dispatcher: dispatcher, resolve: resolve}
}

func (p *LocalPublisher) Publish(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	// Round-trip through the wire format so handlers see what a consumer would.
	value, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	topic := p.resolve(msg.Entity)
	return p.dispatcher.Dispatch(ctx, topic, decodeMessage(topic, value, msg.Timestamp))
}

var (
	_ port.Publisher = (*KafkaPublisher)(nil)
	_ port.Publisher = (*LocalPublisher)(nil)
	_ port.PubSubPort = (*KafkaConsumer)(nil)
)
