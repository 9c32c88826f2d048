package port

import (
	"context"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/bookings/domain"
)

type BookingRepository interface {
	CreateID() string
	Create(ctx context.Context, b domain.Booking) error
	Get(ctx context.Context, id string) (domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	// ListActive returns pending and confirmed bookings of a restaurant on date.
	ListActive(ctx context.Context, restaurantID, date string) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Booking, error)
}

// RestaurantOwners resolves who owns a restaurant.
type RestaurantOwners interface {
	OwnerOf(ctx context.Context, restaurantID string) (string, error)
}

// SessionReader is the part of a session the booking flows need.
type SessionReader interface {
	Current() (authdomain.User, bool)
}
