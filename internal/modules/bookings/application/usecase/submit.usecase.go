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

type SubmitBookingUseCase struct {
	repo      port.BookingRepository
	publisher realtimeport.Publisher
	now       func() time.Time
}

func NewSubmitBookingUseCase(repo port.BookingRepository, publisher realtimeport.Publisher) *SubmitBookingUseCase {
	return &SubmitBookingUseCase{repo: repo, publisher: publisher, now: time.Now}
}

// Window is the date range open for booking today.
func (uc *SubmitBookingUseCase) Window() domain.DateWindow {
	return domain.NewDateWindow(uc.now())
}

// NewForm returns a default form, prefilled for a signed-in user.
func (uc *SubmitBookingUseCase) NewForm(sess port.SessionReader) *domain.BookingForm {
	form := domain.NewBookingForm()
	if sess != nil {
		if user, ok := sess.Current(); ok {
			form.Prefill(user.DisplayName, user.Email)
		}
	}
	return form
}

// Submit validates form, then writes a pending booking for the signed-in user.
// On success the form is reset; on any failure it is left as submitted.
func (uc *SubmitBookingUseCase) Submit(ctx context.Context, sess port.SessionReader, restaurantID string, form *domain.BookingForm) (*domain.Booking, error) {
	if err := form.Validate(uc.Window()); err != nil {
		form.MarkAllTouched()
		return nil, err
	}

	var (
		user authdomain.User
		ok   bool
	)
	if sess != nil {
		user, ok = sess.Current()
	}
	if !ok {
		return nil, authdomain.ErrNotSignedIn
	}

	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.ErrMissingRestaurant
	}

	now := uc.now()
	booking := form.ToBooking(uc.repo.CreateID(), restaurantID, user.UID, now)
	if err := uc.repo.Create(ctx, booking); err != nil {
		slog.Error("booking create failed", slog.String("restaurantId", restaurantID), slog.String("userId", user.UID), slog.Any("error", err))
		return nil, domain.ErrBookingFailed
	}
	slog.Info("booking created", slog.String("bookingId", booking.ID), slog.String("restaurantId", restaurantID), slog.String("date", booking.Date), slog.String("time", booking.Time), slog.Int("partySize", booking.PartySize))

	publishBookingEvent(ctx, uc.publisher, realtime.ActionCreated, booking, now)
	form.Reset()
	return &booking, nil
}
