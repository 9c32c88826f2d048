package broker

import (
	"context"
	"log/slog"
	"sync"

	"mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
)

// StartKafkaConsumers starts one consumer per topic and returns a wait func
// that blocks until all of them have stopped.
func StartKafkaConsumers(
	ctx context.Context,
	registry *infrastructure.HandlerRegistry,
	brokers []string,
	groupID string,
	topics []string,
) func() {
	var wg sync.WaitGroup
	if len(brokers) == 0 {
		return wg.Wait
	}
	for _, topic := range topics {
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			defer consumer.Close()
			slog.Info("kafka consumer started", slog.String("topic", tp), slog.String("groupId", groupID))
			_ = consumer.Consume(ctx, func(msg *domain.Message) error {
				return registry.Dispatch(ctx, tp, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp))
		}(topic)
	}
	return wg.Wait
}
