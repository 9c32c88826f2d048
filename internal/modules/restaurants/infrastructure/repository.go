package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"mesaYaBooking/internal/modules/restaurants/application/port"
	"mesaYaBooking/internal/modules/restaurants/domain"
	"mesaYaBooking/internal/platform/docstore"
)

var Indexes = []docstore.Index{
	{Collection: domain.RestaurantsCollection, Keys: []docstore.Order{{Field: "rating", Direction: docstore.Desc}}},
	{Collection: domain.RestaurantsCollection, Keys: []docstore.Order{{Field: "featured", Direction: docstore.Asc}, {Field: "rating", Direction: docstore.Desc}}},
	{Collection: domain.RestaurantsCollection, Keys: []docstore.Order{{Field: "cuisine", Direction: docstore.Asc}, {Field: "priceRange", Direction: docstore.Asc}, {Field: "city", Direction: docstore.Asc}}},
	{Collection: domain.ReviewsCollection, Keys: []docstore.Order{{Field: "restaurantId", Direction: docstore.Asc}, {Field: "createdAt", Direction: docstore.Desc}}},
}

type RestaurantRepository struct {
	store docstore.Store
}

func NewRestaurantRepository(store docstore.Store) *RestaurantRepository {
	return &RestaurantRepository{store: store}
}

func (r *RestaurantRepository) CreateID() string { return r.store.CreateID() }

func (r *RestaurantRepository) List(ctx context.Context) ([]domain.Restaurant, error) {
	return r.find(ctx, docstore.NewQuery().Order("rating", docstore.Desc))
}

func (r *RestaurantRepository) Featured(ctx context.Context, limit int) ([]domain.Restaurant, error) {
	return r.find(ctx, docstore.NewQuery(docstore.Eq("featured", true)).Order("rating", docstore.Desc).Take(limit))
}

// Search combines the set filters with equality predicates.
func (r *RestaurantRepository) Search(ctx context.Context, filters domain.Filters) ([]domain.Restaurant, error) {
	var preds []docstore.Predicate
	if filters.Cuisine != "" {
		preds = append(preds, docstore.Eq("cuisine", filters.Cuisine))
	}
	if filters.PriceRange != "" {
		preds = append(preds, docstore.Eq("priceRange", filters.PriceRange))
	}
	if filters.City != "" {
		preds = append(preds, docstore.Eq("city", filters.City))
	}
	return r.find(ctx, docstore.NewQuery(preds...))
}

func (r *RestaurantRepository) Get(ctx context.Context, id string) (domain.Restaurant, error) {
	var out domain.Restaurant
	err := r.store.Get(ctx, domain.RestaurantsCollection, id, &out)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Restaurant{}, domain.ErrRestaurantNotFound
	}
	return out, err
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant domain.Restaurant) error {
	return r.store.Set(ctx, domain.RestaurantsCollection, restaurant.ID, restaurant)
}

func (r *RestaurantRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	err := r.store.Update(ctx, domain.RestaurantsCollection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrRestaurantNotFound
	}
	return err
}

func (r *RestaurantRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, domain.RestaurantsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrRestaurantNotFound
	}
	return err
}

func (r *RestaurantRepository) find(ctx context.Context, q docstore.Query) ([]domain.Restaurant, error) {
	out := []domain.Restaurant{}
	if err := r.store.Find(ctx, domain.RestaurantsCollection, q, &out); err != nil {
		return nil, fmt.Errorf("find restaurants: %w", err)
	}
	return out, nil
}

type ReviewRepository struct {
	store docstore.Store
}

func NewReviewRepository(store docstore.Store) *ReviewRepository {
	return &ReviewRepository{store: store}
}

func (r *ReviewRepository) CreateID() string { return r.store.CreateID() }

func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Review, error) {
	out := []domain.Review{}
	q := docstore.NewQuery(docstore.Eq("restaurantId", restaurantID)).Order("createdAt", docstore.Desc)
	if err := r.store.Find(ctx, domain.ReviewsCollection, q, &out); err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	return out, nil
}

func (r *ReviewRepository) Add(ctx context.Context, review domain.Review) error {
	return r.store.Set(ctx, domain.ReviewsCollection, review.ID, review)
}

var (
	_ port.RestaurantRepository = (*RestaurantRepository)(nil)
	_ port.ReviewRepository     = (*ReviewRepository)(nil)
)
