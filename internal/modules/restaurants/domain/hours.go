package domain

import (
	"fmt"
	"strings"
	"time"

	"mesaYaBooking/internal/shared/validation"
)

const hourLayout = "15:04"

// DayHours is one day of the opening hours. Open and Close are HH:MM.
type DayHours struct {
	Open   string `json:"open" bson:"open"`
	Close  string `json:"close" bson:"close"`
	Closed bool   `json:"closed,omitempty" bson:"closed,omitempty"`
}

// OpeningHours maps a day name to its hours.
type OpeningHours map[string]DayHours

// Span returns the open and close times of an open day.
func (h DayHours) Span() (time.Time, time.Time, error) {
	open, err := parseHour(h.Open)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("open: %w", err)
	}
	close, err := parseHour(h.Close)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("close: %w", err)
	}
	if !close.After(open) {
		return time.Time{}, time.Time{}, fmt.Errorf("close %s must be after open %s", h.Close, h.Open)
	}
	return open, close, nil
}

func parseHour(raw string) (time.Time, error) {
	t, err := time.Parse(hourLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not HH:MM", raw)
	}
	return t, nil
}

// Normalize rewrites the keys to canonical day names and checks every open day.
// Problems are reported as validation errors keyed openingHours.<day>.
func (o OpeningHours) Normalize() (OpeningHours, error) {
	if len(o) == 0 {
		return o, nil
	}
	out := make(OpeningHours, len(o))
	errs := validation.Errors{}
	for key, hours := range o {
		day, ok := ParseDayOfWeek(key)
		if !ok {
			errs["openingHours."+key] = "unknown day"
			continue
		}
		if hours.Closed {
			out[string(day)] = DayHours{Closed: true}
			continue
		}
		if _, _, err := hours.Span(); err != nil {
			errs["openingHours."+string(day)] = err.Error()
			continue
		}
		out[string(day)] = DayHours{Open: strings.TrimSpace(hours.Open), Close: strings.TrimSpace(hours.Close)}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// IsOpenAt reports whether at falls inside the hours of its weekday.
func (o OpeningHours) IsOpenAt(at time.Time) bool {
	hours, ok := o[string(DayOf(at.Weekday()))]
	if !ok || hours.Closed {
		return false
	}
	open, close, err := hours.Span()
	if err != nil {
		return false
	}
	clock := time.Date(open.Year(), open.Month(), open.Day(), at.Hour(), at.Minute(), 0, 0, time.UTC)
	return !clock.Before(open) && clock.Before(close)
}
