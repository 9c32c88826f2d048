package domain

import (
	"errors"
	"time"
)

const BookingsCollection = "bookings"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingFailed     = errors.New("unable to create booking")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrDateOutOfRange    = errors.New("date outside the booking window")
	ErrMissingRestaurant = errors.New("missing restaurant id")
	ErrInvalidDate       = errors.New("invalid date")
)

// Booking is one reservation request. It is written once and afterwards only
// its status changes.
type Booking struct {
	ID              string        `json:"id" bson:"_id"`
	RestaurantID    string        `json:"restaurantId" bson:"restaurantId"`
	UserID          string        `json:"userId" bson:"userId"`
	Date            string        `json:"date" bson:"date"`
	Time            string        `json:"time" bson:"time"`
	PartySize       int           `json:"partySize" bson:"partySize"`
	CustomerName    string        `json:"customerName" bson:"customerName"`
	CustomerEmail   string        `json:"customerEmail" bson:"customerEmail"`
	CustomerPhone   string        `json:"customerPhone" bson:"customerPhone"`
	SpecialRequests string        `json:"specialRequests,omitempty" bson:"specialRequests,omitempty"`
	Status          BookingStatus `json:"status" bson:"status"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
}

const DateLayout = "2006-01-02"

// ParseDate reads a calendar date. Full timestamps are accepted and truncated
// to their date.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders the calendar date of t, dropping the time of day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
