package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	authtransport "mesaYaBooking/internal/modules/auth/interface"
	"mesaYaBooking/internal/modules/bookings/application/usecase"
	"mesaYaBooking/internal/modules/bookings/domain"
	"mesaYaBooking/internal/modules/bookings/infrastructure"
	"mesaYaBooking/internal/shared/httputil"
)

var bookingErrors = httputil.NewErrorMapper().
	WithMapping(authdomain.ErrNotSignedIn, http.StatusUnauthorized, "sign in to continue").
	WithMapping(authdomain.ErrForbidden, http.StatusForbidden, "forbidden").
	WithMapping(domain.ErrMissingRestaurant, http.StatusBadRequest, "missing restaurant id").
	WithMapping(domain.ErrInvalidDate, http.StatusBadRequest, "date must be YYYY-MM-DD").
	WithMapping(domain.ErrBookingNotFound, http.StatusNotFound, "booking not found").
	WithMapping(infrastructure.ErrRestaurantNotFound, http.StatusNotFound, "restaurant not found").
	WithMapping(domain.ErrInvalidTransition, http.StatusConflict, "only pending bookings can change status").
	WithMapping(domain.ErrBookingFailed, http.StatusInternalServerError, "unable to create booking")

// Handlers groups the booking use cases served over HTTP.
type Handlers struct {
	Availability *usecase.AvailabilityUseCase
	Submit       *usecase.SubmitBookingUseCase
	Manage       *usecase.ManageBookingsUseCase
}

func NewAvailabilityHTTPHandler(uc *usecase.AvailabilityUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		availability, err := uc.Get(c.Request().Context(), c.Param("id"), c.QueryParam("date"))
		if err != nil {
			return bookingErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, availability)
	}
}

// NewBookingFormHTTPHandler returns a fresh form, prefilled for signed-in users,
// with the selectable date window and slot labels.
func NewBookingFormHTTPHandler(uc *usecase.SubmitBookingUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		form := uc.NewForm(authtransport.SessionFrom(c))
		return c.JSON(http.StatusOK, form.View(uc.Window()))
	}
}

func NewSubmitBookingHTTPHandler(uc *usecase.SubmitBookingUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		form := domain.NewBookingForm()
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		booking, err := uc.Submit(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id"), form)
		if err != nil {
			return bookingErrors.HTTPError(err)
		}
		return c.JSON(http.StatusCreated, booking)
	}
}

func NewMyBookingsHTTPHandler(uc *usecase.ManageBookingsUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		bookings, err := uc.ListByUser(c.Request().Context(), authtransport.SessionFrom(c))
		if err != nil {
			return bookingErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"bookings": bookings})
	}
}

func NewRestaurantBookingsHTTPHandler(uc *usecase.ManageBookingsUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		bookings, err := uc.ListByRestaurant(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id"))
		if err != nil {
			return bookingErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"bookings": bookings})
	}
}

func NewBookingStatusHTTPHandler(uc *usecase.ManageBookingsUseCase, status domain.BookingStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		booking, err := uc.UpdateStatus(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id"), status)
		if err != nil {
			return bookingErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, booking)
	}
}

// RegisterRoutes mounts the booking endpoints on the /api group.
func RegisterRoutes(api *echo.Group, h Handlers) {
	signedIn := authtransport.RequireSignedIn()

	api.GET("/restaurants/:id/availability", NewAvailabilityHTTPHandler(h.Availability))
	api.GET("/restaurants/:id/bookings/form", NewBookingFormHTTPHandler(h.Submit))
	api.POST("/restaurants/:id/bookings", NewSubmitBookingHTTPHandler(h.Submit), signedIn)
	api.GET("/restaurants/:id/bookings", NewRestaurantBookingsHTTPHandler(h.Manage), signedIn)
	api.GET("/me/bookings", NewMyBookingsHTTPHandler(h.Manage), signedIn)
	api.POST("/bookings/:id/confirm", NewBookingStatusHTTPHandler(h.Manage, domain.BookingStatusConfirmed), signedIn)
	api.POST("/bookings/:id/cancel", NewBookingStatusHTTPHandler(h.Manage, domain.BookingStatusCancelled), signedIn)
}
