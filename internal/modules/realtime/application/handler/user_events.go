package handler

import (
	"context"
	"log/slog"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/application/usecase"
	"mesaYaBooking/internal/modules/realtime/domain"
)

// UserEventsHandler handles users.* events. Sign-outs drop the session's sockets.
type UserEventsHandler struct {
	topic    string
	UseCase  *usecase.BroadcastUseCase
	Sessions port.SessionCloser
}

func NewUserEventsHandler(topic string, uc *usecase.BroadcastUseCase, sessions port.SessionCloser) *UserEventsHandler {
	return &UserEventsHandler{topic: topic, UseCase: uc, Sessions: sessions}
}

func (h *UserEventsHandler) Topic() string { return h.topic }

func (h *UserEventsHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if msg.Action == domain.ActionSignedOut {
		sessionID := msg.Meta("sessionId")
		if sessionID == "" || h.Sessions == nil {
			return nil
		}
		closed := h.Sessions.CloseSession(sessionID)
		slog.Info("user-events session closed", slog.String("sessionId", sessionID), slog.Int("clients", closed))
		return nil
	}
	// Profile changes only reach the user's own sockets.
	if msg.Meta("userId") == "" && msg.ResourceID != "" {
		if msg.Metadata == nil {
			msg.Metadata = map[string]string{}
		}
		msg.Metadata["userId"] = msg.ResourceID
	}
	h.UseCase.Execute(ctx, msg)
	return nil
}

var _ port.TopicHandler = (*UserEventsHandler)(nil)
