package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mesaYaBooking/internal/shared/validation"
)

const DefaultPartySize = 2

// FormFields lists every field of BookingForm by its JSON name.
var FormFields = []string{"date", "time", "partySize", "customerName", "customerEmail", "customerPhone", "specialRequests"}

// BookingForm is the editable state behind a booking submission.
type BookingForm struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required"`
	PartySize       int    `json:"partySize" validate:"required,min=1,max=20"`
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string `json:"customerPhone" validate:"required"`
	SpecialRequests string `json:"specialRequests,omitempty"`

	touched map[string]bool
}

func NewBookingForm() *BookingForm {
	return &BookingForm{PartySize: DefaultPartySize}
}

// Prefill copies the signed-in user's contact details into empty fields.
func (f *BookingForm) Prefill(name, email string) {
	if strings.TrimSpace(f.CustomerName) == "" {
		f.CustomerName = strings.TrimSpace(name)
	}
	if strings.TrimSpace(f.CustomerEmail) == "" {
		f.CustomerEmail = strings.TrimSpace(email)
	}
}

func (f *BookingForm) Touch(field string) {
	if f.touched == nil {
		f.touched = map[string]bool{}
	}
	f.touched[field] = true
}

func (f *BookingForm) MarkAllTouched() {
	for _, field := range FormFields {
		f.Touch(field)
	}
}

func (f *BookingForm) IsTouched(field string) bool { return f.touched[field] }

// Touched lists touched fields in form order.
func (f *BookingForm) Touched() []string {
	out := make([]string, 0, len(f.touched))
	for _, field := range FormFields {
		if f.touched[field] {
			out = append(out, field)
		}
	}
	return out
}

// Reset restores the defaults and clears touched state.
func (f *BookingForm) Reset() {
	*f = BookingForm{PartySize: DefaultPartySize}
}

// Validate checks the field rules and, when window is set, the date range.
// Failures are validation.Errors; an out of range date also matches ErrDateOutOfRange.
func (f *BookingForm) Validate(window DateWindow) error {
	err := validation.Struct(f)
	var fields validation.Errors
	if err != nil && !errors.As(err, &fields) {
		return err
	}
	outOfRange := false
	if _, bad := fields["date"]; !bad && !window.IsZero() && !window.Contains(f.Date) {
		if fields == nil {
			fields = validation.Errors{}
		}
		fields["date"] = fmt.Sprintf("choose a date between %s and %s", FormatDate(window.Min), FormatDate(window.Max))
		outOfRange = true
	}
	if len(fields) == 0 {
		return nil
	}
	if outOfRange {
		return fmt.Errorf("%w: %w", ErrDateOutOfRange, fields)
	}
	return fields
}

// ToBooking builds the pending booking submitted from this form.
func (f *BookingForm) ToBooking(id, restaurantID, userID string, now time.Time) Booking {
	return Booking{
		ID:              id,
		RestaurantID:    restaurantID,
		UserID:          userID,
		Date:            f.Date,
		Time:            strings.TrimSpace(f.Time),
		PartySize:       f.PartySize,
		CustomerName:    strings.TrimSpace(f.CustomerName),
		CustomerEmail:   strings.TrimSpace(f.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(f.CustomerPhone),
		SpecialRequests: strings.TrimSpace(f.SpecialRequests),
		Status:          BookingStatusPending,
		CreatedAt:       now.UTC(),
	}
}

// FormView is the JSON shape of a form sent back to clients.
type FormView struct {
	Form    *BookingForm   `json:"form"`
	Touched []string       `json:"touched"`
	Window  DateWindowView `json:"window"`
	Slots   []string       `json:"slots"`
}

func (f *BookingForm) View(window DateWindow) FormView {
	return FormView{Form: f, Touched: f.Touched(), Window: window.View(), Slots: SlotLabels()}
}
