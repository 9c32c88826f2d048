package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/shared/auth"
)

var (
	ErrMissingStream  = errors.New("missing stream")
	ErrSessionRevoked = errors.New("session revoked")
)

type ConnectStreamInput struct {
	Token  string
	Stream string
}

type ConnectStreamOutput struct {
	// Claims is nil for anonymous viewers.
	Claims *auth.Claims
}

// ConnectStreamUseCase authorizes a websocket connection. Live queries are
// public, so the token is optional; when present it must be valid and its
// session still signed in.
type ConnectStreamUseCase struct {
	Validator auth.TokenValidator
	Sessions  port.SessionChecker
}

func NewConnectStreamUseCase(validator auth.TokenValidator, sessions port.SessionChecker) *ConnectStreamUseCase {
	return &ConnectStreamUseCase{Validator: validator, Sessions: sessions}
}

func (uc *ConnectStreamUseCase) Execute(_ context.Context, input ConnectStreamInput) (*ConnectStreamOutput, error) {
	stream := strings.TrimSpace(input.Stream)
	if stream == "" {
		return nil, ErrMissingStream
	}

	token := strings.TrimSpace(input.Token)
	if token == "" || uc.Validator == nil {
		slog.Debug("connect-stream anonymous", slog.String("stream", stream))
		return &ConnectStreamOutput{}, nil
	}

	claims, err := uc.Validator.Validate(token)
	if err != nil {
		slog.Warn("connect-stream token validation failed", slog.String("stream", stream), slog.Any("error", err))
		return nil, err
	}
	if uc.Sessions != nil && !uc.Sessions.Active(claims.SessionID) {
		slog.Warn("connect-stream session revoked", slog.String("stream", stream), slog.String("sessionId", claims.SessionID))
		return nil, ErrSessionRevoked
	}

	slog.Info("connect-stream token valid", slog.String("stream", stream), slog.String("subject", claims.Subject), slog.String("sessionId", claims.SessionID), slog.Any("roles", claims.Roles))
	return &ConnectStreamOutput{Claims: claims}, nil
}
