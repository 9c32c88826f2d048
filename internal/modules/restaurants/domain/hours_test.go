package domain

import (
	"errors"
	"testing"
	"time"

	"mesaYaBooking/internal/shared/validation"
)

func TestOpeningHoursNormalize(t *testing.T) {
	hours := OpeningHours{
		"Mon":    {Open: "11:00", Close: "22:00"},
		"sunday": {Closed: true, Open: "junk"},
	}
	out, err := hours.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["monday"].Open != "11:00" || out["sunday"] != (DayHours{Closed: true}) {
		t.Fatalf("unexpected hours %+v", out)
	}

	tests := []struct {
		name  string
		hours OpeningHours
		field string
	}{
		{name: "unknown day", hours: OpeningHours{"holiday": {Open: "10:00", Close: "12:00"}}, field: "openingHours.holiday"},
		{name: "bad format", hours: OpeningHours{"friday": {Open: "9am", Close: "12:00"}}, field: "openingHours.friday"},
		{name: "close before open", hours: OpeningHours{"friday": {Open: "22:00", Close: "11:00"}}, field: "openingHours.friday"},
		{name: "close equals open", hours: OpeningHours{"friday": {Open: "11:00", Close: "11:00"}}, field: "openingHours.friday"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.hours.Normalize()
			var fields validation.Errors
			if !errors.As(err, &fields) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if _, ok := fields[test.field]; !ok {
				t.Fatalf("expected %s in %v", test.field, fields)
			}
		})
	}
}

func TestOpeningHoursIsOpenAt(t *testing.T) {
	hours := OpeningHours{"saturday": {Open: "11:00", Close: "22:00"}, "sunday": {Closed: true}}
	saturday := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		open bool
	}{
		{at: saturday.Add(19 * time.Hour), open: true},
		{at: saturday.Add(11 * time.Hour), open: true},
		{at: saturday.Add(22 * time.Hour), open: false},
		{at: saturday.Add(9 * time.Hour), open: false},
		{at: saturday.Add(24*time.Hour + 12*time.Hour), open: false},
		{at: saturday.Add(48*time.Hour + 12*time.Hour), open: false},
	}
	for _, c := range cases {
		if got := hours.IsOpenAt(c.at); got != c.open {
			t.Fatalf("IsOpenAt(%s) expected %v, got %v", c.at, c.open, got)
		}
	}
}
