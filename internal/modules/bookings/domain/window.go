package domain

import "time"

// BookingHorizonMonths is how far ahead a booking can be made.
const BookingHorizonMonths = 2

// DateWindow bounds the selectable booking dates, both ends inclusive.
type DateWindow struct {
	Min time.Time
	Max time.Time
}

// NewDateWindow runs from the calendar day of today to two months later.
func NewDateWindow(today time.Time) DateWindow {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return DateWindow{Min: start, Max: start.AddDate(0, BookingHorizonMonths, 0)}
}

func (w DateWindow) IsZero() bool { return w.Min.IsZero() && w.Max.IsZero() }

// Contains reports whether the calendar date falls inside the window.
func (w DateWindow) Contains(date string) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return !d.Before(w.Min) && !d.After(w.Max)
}

type DateWindowView struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

func (w DateWindow) View() DateWindowView {
	return DateWindowView{Min: FormatDate(w.Min), Max: FormatDate(w.Max)}
}
