package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"mesaYaBooking/internal/modules/bookings/application/port"
	"mesaYaBooking/internal/modules/bookings/domain"
	"mesaYaBooking/internal/platform/docstore"
)

const restaurantsCollection = "restaurants"

var ErrRestaurantNotFound = errors.New("restaurant not found")

// Indexes backs the booking queries on MongoDB.
var Indexes = []docstore.Index{
	{Collection: domain.BookingsCollection, Keys: []docstore.Order{{Field: "restaurantId", Direction: docstore.Asc}, {Field: "date", Direction: docstore.Asc}, {Field: "status", Direction: docstore.Asc}}},
	{Collection: domain.BookingsCollection, Keys: []docstore.Order{{Field: "userId", Direction: docstore.Asc}, {Field: "date", Direction: docstore.Desc}}},
}

type BookingRepository struct {
	store docstore.Store
}

func NewBookingRepository(store docstore.Store) *BookingRepository {
	return &BookingRepository{store: store}
}

func (r *BookingRepository) CreateID() string { return r.store.CreateID() }

func (r *BookingRepository) Create(ctx context.Context, b domain.Booking) error {
	if err := r.store.Set(ctx, domain.BookingsCollection, b.ID, b); err != nil {
		return fmt.Errorf("create booking %s: %w", b.ID, err)
	}
	return nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (domain.Booking, error) {
	var b domain.Booking
	err := r.store.Get(ctx, domain.BookingsCollection, id, &b)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	err := r.store.Update(ctx, domain.BookingsCollection, id, map[string]any{"status": string(status)})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrBookingNotFound
	}
	return err
}

func (r *BookingRepository) ListActive(ctx context.Context, restaurantID, date string) ([]domain.Booking, error) {
	statuses := make([]any, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		statuses = append(statuses, string(s))
	}
	q := docstore.NewQuery(
		docstore.Eq("restaurantId", restaurantID),
		docstore.Eq("date", date),
		docstore.In("status", statuses...),
	)
	return r.find(ctx, q)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return r.find(ctx, docstore.NewQuery(docstore.Eq("userId", userID)).Order("date", docstore.Desc).Order("time", docstore.Desc))
}

func (r *BookingRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Booking, error) {
	return r.find(ctx, docstore.NewQuery(docstore.Eq("restaurantId", restaurantID)).Order("date", docstore.Desc).Order("time", docstore.Desc))
}

func (r *BookingRepository) find(ctx context.Context, q docstore.Query) ([]domain.Booking, error) {
	out := []domain.Booking{}
	if err := r.store.Find(ctx, domain.BookingsCollection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OwnerLookup reads the owner of a restaurant document.
type OwnerLookup struct {
	store docstore.Store
}

func NewOwnerLookup(store docstore.Store) *OwnerLookup {
	return &OwnerLookup{store: store}
}

func (o *OwnerLookup) OwnerOf(ctx context.Context, restaurantID string) (string, error) {
	var doc struct {
		OwnerID string `bson:"ownerId"`
	}
	err := o.store.Get(ctx, restaurantsCollection, restaurantID, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", ErrRestaurantNotFound
	}
	return doc.OwnerID, err
}

var (
	_ port.BookingRepository = (*BookingRepository)(nil)
	_ port.RestaurantOwners  = (*OwnerLookup)(nil)
)
