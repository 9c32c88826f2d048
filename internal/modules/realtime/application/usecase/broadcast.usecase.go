package usecase

import (
	"context"
	"strings"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/domain"
)

type BroadcastUseCase struct {
	broadcaster port.Broadcaster
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, msg *domain.Message) {
	if uc == nil || uc.broadcaster == nil || msg == nil {
		return
	}
	if strings.TrimSpace(msg.Topic) == "" {
		msg.Topic = domain.CustomTopic(msg.Entity, msg.Action)
		if msg.Topic == "" {
			return
		}
	}
	uc.broadcaster.Broadcast(ctx, msg)
}
