package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mesaYaBooking/internal/modules/bookings/application/port"
	"mesaYaBooking/internal/modules/bookings/domain"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/platform/livequery"
)

const availabilityKeyPrefix = "availability:"

// AvailabilityKey is the live query key of one restaurant/date grid.
func AvailabilityKey(restaurantID, date string) string {
	return availabilityKeyPrefix + restaurantID + ":" + date
}

type AvailabilityUseCase struct {
	repo port.BookingRepository
	live *livequery.Registry[domain.Availability]
}

func NewAvailabilityUseCase(repo port.BookingRepository, live *livequery.Registry[domain.Availability]) *AvailabilityUseCase {
	if live == nil {
		live = livequery.NewRegistry[domain.Availability]("availability")
	}
	return &AvailabilityUseCase{repo: repo, live: live}
}

func normalizeInput(restaurantID, date string) (string, string, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return "", "", domain.ErrMissingRestaurant
	}
	d, err := domain.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return "", "", err
	}
	return restaurantID, domain.FormatDate(d), nil
}

// Get computes the slot grid for restaurantID on date.
func (uc *AvailabilityUseCase) Get(ctx context.Context, restaurantID, date string) (domain.Availability, error) {
	restaurantID, date, err := normalizeInput(restaurantID, date)
	if err != nil {
		return domain.Availability{}, err
	}
	return uc.compute(ctx, restaurantID, date)
}

func (uc *AvailabilityUseCase) compute(ctx context.Context, restaurantID, date string) (domain.Availability, error) {
	bookings, err := uc.repo.ListActive(ctx, restaurantID, date)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("load bookings for %s on %s: %w", restaurantID, date, err)
	}
	return domain.Availability{
		RestaurantID: restaurantID,
		Date:         date,
		Slots:        domain.ComputeAvailability(bookings),
	}, nil
}

// Watch subscribes to the live grid. The caller must Close the subscription.
func (uc *AvailabilityUseCase) Watch(ctx context.Context, restaurantID, date string) (*livequery.Subscription[domain.Availability], error) {
	restaurantID, date, err := normalizeInput(restaurantID, date)
	if err != nil {
		return nil, err
	}
	return uc.live.Subscribe(ctx, AvailabilityKey(restaurantID, date), func(ctx context.Context) (domain.Availability, error) {
		return uc.compute(ctx, restaurantID, date)
	})
}

// Refresh recomputes the grids touched by a booking event.
func (uc *AvailabilityUseCase) Refresh(ctx context.Context, msg *realtime.Message) {
	if msg == nil || realtime.NormalizeEntity(msg.Entity) != realtime.EntityBookings {
		return
	}
	restaurantID := msg.Meta("restaurantId")
	date := msg.Meta("date")
	var refreshed int
	switch {
	case restaurantID != "" && date != "":
		if err := uc.live.Refresh(ctx, AvailabilityKey(restaurantID, date)); err != nil {
			slog.Warn("availability refresh failed", slog.String("restaurantId", restaurantID), slog.String("date", date), slog.Any("error", err))
		}
		refreshed = uc.live.Subscribers(AvailabilityKey(restaurantID, date))
	case restaurantID != "":
		refreshed = uc.live.RefreshPrefix(ctx, availabilityKeyPrefix+restaurantID+":")
	default:
		refreshed = uc.live.RefreshPrefix(ctx, availabilityKeyPrefix)
	}
	slog.Debug("availability refreshed", slog.String("event", msg.Topic), slog.String("restaurantId", restaurantID), slog.String("date", date), slog.Int("count", refreshed))
}

var _ realtimeport.SnapshotRefresher = (*AvailabilityUseCase)(nil)
