package handler

import (
	"context"
	"log/slog"
	"strings"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/application/usecase"
	"mesaYaBooking/internal/modules/realtime/domain"
)

// EntityStreamHandler forwards change events of one feed topic to websocket
// clients and recomputes the live queries they affect.
type EntityStreamHandler struct {
	entity         string
	topic          string
	allowedActions map[string]struct{}
	broadcastUC    *usecase.BroadcastUseCase
	refreshers     []port.SnapshotRefresher
}

func NewEntityStreamHandler(entity, topic string, allowedActions []string, broadcastUC *usecase.BroadcastUseCase, refreshers ...port.SnapshotRefresher) *EntityStreamHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &EntityStreamHandler{
		entity:         domain.NormalizeEntity(entity),
		topic:          topic,
		allowedActions: actionSet,
		broadcastUC:    broadcastUC,
		refreshers:     refreshers,
	}
}

func (h *EntityStreamHandler) Topic() string { return h.topic }

func (h *EntityStreamHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if msg.Entity == "" {
		msg.Entity = h.entity
	}
	// Refresh regardless of the action filter: filtered actions still change data.
	h.refresh(ctx, msg)

	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(msg.Action)]; !ok {
			return nil
		}
	}
	if msg.Topic == "" {
		msg.Topic = domain.CustomTopic(msg.Entity, msg.Action)
	}
	h.broadcastUC.Execute(ctx, msg)
	return nil
}

func (h *EntityStreamHandler) refresh(ctx context.Context, msg *domain.Message) {
	if strings.EqualFold(msg.Action, domain.ActionSnapshot) {
		return
	}
	for _, r := range h.refreshers {
		if r == nil {
			continue
		}
		slog.Debug("entity-stream refresh", slog.String("entity", msg.Entity), slog.String("action", msg.Action), slog.String("resourceId", msg.ResourceID))
		r.Refresh(ctx, msg)
	}
}

var _ port.TopicHandler = (*EntityStreamHandler)(nil)
