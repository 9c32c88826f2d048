package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	bookingdomain "mesaYaBooking/internal/modules/bookings/domain"
	domain "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
)

// NewAvailabilityWebsocketHandler streams the slot grid of one restaurant and
// date. The current grid is pushed on connect and again after every booking
// change for that day. Anonymous viewers are allowed.
func NewAvailabilityWebsocketHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurantID := strings.TrimSpace(c.Param("restaurantId"))
		date := strings.TrimSpace(c.Param("date"))
		stream := domain.EntityAvailability + ":" + restaurantID + ":" + date

		id, err := h.connect(c, stream)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), connectTimeout)
		defer cancel()
		sub, err := h.Availability.Watch(ctx, restaurantID, date)
		if err != nil {
			status, message := availabilityFailure(err)
			slog.Warn("availability ws rejected", slog.String("streamId", stream), slog.Int("status", status), slog.Any("error", err))
			return echo.NewHTTPError(status, message)
		}

		client, err := h.upgrade(c, id, stream, domain.EntityAvailability)
		if err != nil {
			sub.Close()
			return err
		}
		client.AddCloseHook(func(*infrastructure.Client) { sub.Close() })
		h.start(c, client, id, buildTopics(domain.EntityAvailability, nil))

		go pumpSubscription(client, sub, func(a bookingdomain.Availability) *domain.Message {
			return domain.BuildStreamMessage(domain.EntityAvailability, domain.ActionSnapshot, a.RestaurantID, a, time.Now(), domain.Metadata{
				"streamId":     stream,
				"restaurantId": a.RestaurantID,
				"date":         a.Date,
			})
		})
		return nil
	}
}

func availabilityFailure(err error) (int, string) {
	switch {
	case errors.Is(err, bookingdomain.ErrMissingRestaurant):
		return http.StatusBadRequest, "missing restaurant id"
	case errors.Is(err, bookingdomain.ErrInvalidDate):
		return http.StatusBadRequest, "invalid date"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "availability timeout"
	default:
		return http.StatusInternalServerError, "unable to load availability"
	}
}
