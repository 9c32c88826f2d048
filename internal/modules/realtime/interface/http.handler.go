package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	bookings "mesaYaBooking/internal/modules/bookings/application/usecase"
	"mesaYaBooking/internal/modules/realtime/application/usecase"
	domain "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
	restaurants "mesaYaBooking/internal/modules/restaurants/application/usecase"
	"mesaYaBooking/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var guestCounter atomic.Uint64

const connectTimeout = 10 * time.Second

// Handlers carries the dependencies of the websocket routes.
type Handlers struct {
	Hub            *infrastructure.Hub
	Connect        *usecase.ConnectStreamUseCase
	Availability   *bookings.AvailabilityUseCase
	Directory      *restaurants.DirectoryUseCase
	AllowedActions []string
	SendBuffer     int
}

// RegisterRoutes mounts the websocket streams. The token may be given as the
// last path segment, as ?token= or as a bearer header.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	availability := NewAvailabilityWebsocketHandler(h)
	directory := NewDirectoryWebsocketHandler(h)
	account := NewAccountWebsocketHandler(h)

	e.GET("/ws/availability/:restaurantId/:date/:token", availability)
	e.GET("/ws/availability/:restaurantId/:date", availability)
	e.GET("/ws/restaurants/:section/:token", directory)
	e.GET("/ws/restaurants/:section", directory)
	e.GET("/ws/me/:token", account)
	e.GET("/ws/me", account)
}

type identity struct {
	userID    string
	sessionID string
	roles     []string
	claims    *auth.Claims
}

func (id identity) signedIn() bool { return id.claims != nil }

// identityOf resolves who is connecting; anonymous viewers get a throwaway guest session.
func identityOf(out *usecase.ConnectStreamOutput) identity {
	if out == nil || out.Claims == nil {
		return identity{sessionID: fmt.Sprintf("guest-%d", guestCounter.Add(1))}
	}
	return identity{
		userID:    out.Claims.Subject,
		sessionID: out.Claims.SessionID,
		roles:     out.Claims.Roles,
		claims:    out.Claims,
	}
}

func (h Handlers) connect(c echo.Context, stream string) (identity, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), connectTimeout)
	defer cancel()

	out, err := h.Connect.Execute(ctx, usecase.ConnectStreamInput{Token: auth.ExtractEchoToken(c), Stream: stream})
	if err != nil {
		status, message := connectFailure(err)
		slog.Warn("ws connect rejected", slog.String("streamId", stream), slog.Int("status", status), slog.String("ip", c.RealIP()), slog.Any("error", err))
		return identity{}, echo.NewHTTPError(status, message)
	}
	return identityOf(out), nil
}

func connectFailure(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrMissingStream):
		return http.StatusBadRequest, "missing stream"
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "missing token"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, usecase.ErrSessionRevoked):
		return http.StatusUnauthorized, "session revoked"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "connect timeout"
	default:
		return http.StatusInternalServerError, "unable to connect stream"
	}
}

func (h Handlers) sendBuffer() int {
	if h.SendBuffer > 0 {
		return h.SendBuffer
	}
	return 16
}

// upgrade switches the request to a websocket and creates the hub client.
// The pumps are not running yet so callers can bind commands and install
// close hooks first.
func (h Handlers) upgrade(c echo.Context, id identity, streamID, entity string) (*infrastructure.Client, error) {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("ws upgrade failed", slog.String("streamId", streamID), slog.String("ip", c.RealIP()), slog.Any("error", err))
		return nil, err
	}
	return infrastructure.NewClient(h.Hub, conn, id.userID, id.sessionID, streamID, entity, h.sendBuffer()), nil
}

// start attaches the client to topics, starts its pumps and greets it. A nil
// topic list makes the client a global subscriber.
func (h Handlers) start(c echo.Context, client *infrastructure.Client, id identity, topics []string) {
	if topics == nil {
		h.Hub.AttachClientToAll(client)
	} else {
		h.Hub.AttachClient(client, topics)
	}

	go client.WritePump()
	go client.ReadPump()

	client.SendDomainMessage(connectedMessage(client, id, topics))
	slog.Info("ws connected",
		slog.String("entity", client.Entity()),
		slog.String("streamId", client.StreamID()),
		slog.String("userId", id.userID),
		slog.String("sessionId", id.sessionID),
		slog.String("ip", c.RealIP()),
		slog.String("reqID", c.Response().Header().Get(echo.HeaderXRequestID)))
}

func connectedMessage(client *infrastructure.Client, id identity, topics []string) *domain.Message {
	data := map[string]any{
		"entity":        client.Entity(),
		"streamId":      client.StreamID(),
		"authenticated": id.signedIn(),
		"roles":         id.roles,
		"allowedTopics": topics,
	}
	if topics == nil {
		data["allowedTopics"] = []string{"*"}
	}
	return &domain.Message{
		Topic:  domain.TopicSystemConnected,
		Entity: domain.SystemEntity,
		Action: domain.ActionConnected,
		Metadata: map[string]string{
			"userId":    id.userID,
			"sessionId": id.sessionID,
			"streamId":  client.StreamID(),
		},
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
