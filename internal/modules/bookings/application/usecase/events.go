package usecase

import (
	"context"
	"log/slog"
	"time"

	"mesaYaBooking/internal/modules/bookings/domain"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
)

// bookingSummary is the event payload; contact details stay out of the feed.
type bookingSummary struct {
	ID           string               `json:"id"`
	RestaurantID string               `json:"restaurantId"`
	Date         string               `json:"date"`
	Time         string               `json:"time"`
	PartySize    int                  `json:"partySize"`
	Status       domain.BookingStatus `json:"status"`
}

func publishBookingEvent(ctx context.Context, publisher realtimeport.Publisher, action string, b domain.Booking, at time.Time) {
	if publisher == nil {
		return
	}
	msg := realtime.NewChangeEvent(realtime.EntityBookings, action, b.ID, realtime.Metadata{
		"restaurantId": b.RestaurantID,
		"userId":       b.UserID,
		"date":         b.Date,
		"time":         b.Time,
	}, bookingSummary{
		ID:           b.ID,
		RestaurantID: b.RestaurantID,
		Date:         b.Date,
		Time:         b.Time,
		PartySize:    b.PartySize,
		Status:       b.Status,
	}, at)
	if err := publisher.Publish(ctx, msg); err != nil {
		slog.Warn("booking event publish failed", slog.String("topic", msg.Topic), slog.String("bookingId", b.ID), slog.Any("error", err))
	}
}
