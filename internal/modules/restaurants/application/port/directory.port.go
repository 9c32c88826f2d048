package port

import (
	"context"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/restaurants/domain"
)

type RestaurantRepository interface {
	CreateID() string
	List(ctx context.Context) ([]domain.Restaurant, error)
	Featured(ctx context.Context, limit int) ([]domain.Restaurant, error)
	Search(ctx context.Context, filters domain.Filters) ([]domain.Restaurant, error)
	Get(ctx context.Context, id string) (domain.Restaurant, error)
	Create(ctx context.Context, r domain.Restaurant) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	CreateID() string
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Review, error)
	Add(ctx context.Context, review domain.Review) error
}

type SessionReader interface {
	Current() (authdomain.User, bool)
}
