package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/bookings/application/port"
	"mesaYaBooking/internal/modules/bookings/domain"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
)

type ManageBookingsUseCase struct {
	repo      port.BookingRepository
	owners    port.RestaurantOwners
	publisher realtimeport.Publisher
	now       func() time.Time
}

func NewManageBookingsUseCase(repo port.BookingRepository, owners port.RestaurantOwners, publisher realtimeport.Publisher) *ManageBookingsUseCase {
	return &ManageBookingsUseCase{repo: repo, owners: owners, publisher: publisher, now: time.Now}
}

func currentUser(sess port.SessionReader) (authdomain.User, error) {
	if sess == nil {
		return authdomain.User{}, authdomain.ErrNotSignedIn
	}
	user, ok := sess.Current()
	if !ok {
		return authdomain.User{}, authdomain.ErrNotSignedIn
	}
	return user, nil
}

// ListByUser returns the caller's bookings, newest date first.
func (uc *ManageBookingsUseCase) ListByUser(ctx context.Context, sess port.SessionReader) ([]domain.Booking, error) {
	user, err := currentUser(sess)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListByUser(ctx, user.UID)
}

// ListByRestaurant is limited to the restaurant owner and admins.
func (uc *ManageBookingsUseCase) ListByRestaurant(ctx context.Context, sess port.SessionReader, restaurantID string) ([]domain.Booking, error) {
	user, err := currentUser(sess)
	if err != nil {
		return nil, err
	}
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.ErrMissingRestaurant
	}
	if !user.IsAdmin() {
		owner, err := uc.owners.OwnerOf(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
		if owner != user.UID {
			return nil, authdomain.ErrForbidden
		}
	}
	return uc.repo.ListByRestaurant(ctx, restaurantID)
}

func (uc *ManageBookingsUseCase) Confirm(ctx context.Context, sess port.SessionReader, id string) (*domain.Booking, error) {
	return uc.UpdateStatus(ctx, sess, id, domain.BookingStatusConfirmed)
}

func (uc *ManageBookingsUseCase) Cancel(ctx context.Context, sess port.SessionReader, id string) (*domain.Booking, error) {
	return uc.UpdateStatus(ctx, sess, id, domain.BookingStatusCancelled)
}

// UpdateStatus moves a pending booking to confirmed or cancelled.
// Owners and admins may do both; the booking's author may only cancel.
func (uc *ManageBookingsUseCase) UpdateStatus(ctx context.Context, sess port.SessionReader, id string, status domain.BookingStatus) (*domain.Booking, error) {
	user, err := currentUser(sess)
	if err != nil {
		return nil, err
	}
	status = domain.NormalizeBookingStatus(status)
	if status != domain.BookingStatusConfirmed && status != domain.BookingStatusCancelled {
		return nil, domain.ErrInvalidTransition
	}

	booking, err := uc.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, user, booking, status); err != nil {
		return nil, err
	}
	if !domain.CanTransition(booking.Status, status) {
		return nil, domain.ErrInvalidTransition
	}
	if err := uc.repo.UpdateStatus(ctx, booking.ID, status); err != nil {
		slog.Error("booking status update failed", slog.String("bookingId", booking.ID), slog.String("status", string(status)), slog.Any("error", err))
		return nil, err
	}
	booking.Status = status
	slog.Info("booking status changed", slog.String("bookingId", booking.ID), slog.String("status", string(status)), slog.String("by", user.UID))

	action := realtime.ActionConfirmed
	if status == domain.BookingStatusCancelled {
		action = realtime.ActionCancelled
	}
	publishBookingEvent(ctx, uc.publisher, action, booking, uc.now())
	return &booking, nil
}

func (uc *ManageBookingsUseCase) authorize(ctx context.Context, user authdomain.User, booking domain.Booking, status domain.BookingStatus) error {
	if user.IsAdmin() {
		return nil
	}
	if status == domain.BookingStatusCancelled && booking.UserID == user.UID {
		return nil
	}
	owner, err := uc.owners.OwnerOf(ctx, booking.RestaurantID)
	if err != nil {
		return err
	}
	if owner != "" && owner == user.UID {
		return nil
	}
	return authdomain.ErrForbidden
}
