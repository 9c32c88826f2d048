package transport

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	domain "mesaYaBooking/internal/modules/realtime/domain"
)

// NewAccountWebsocketHandler exposes /ws/me, the personal stream of a signed-in
// user: profile changes and the status of their own bookings. Admins receive
// every broadcast instead.
func NewAccountWebsocketHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := h.connect(c, "me")
		if err != nil {
			return err
		}
		if !id.signedIn() {
			slog.Warn("account ws rejected anonymous client", slog.String("ip", c.RealIP()))
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		stream := "me:" + id.userID
		client, err := h.upgrade(c, id, stream, domain.EntityUsers)
		if err != nil {
			return err
		}

		topics := accountTopics()
		if id.claims.HasRole(string(authdomain.RoleAdmin)) {
			topics = nil
		}
		h.start(c, client, id, topics)
		return nil
	}
}
