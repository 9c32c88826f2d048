package domain

import "strings"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusUnknown   BookingStatus = ""
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// NormalizeBookingStatus parses loosely typed input. Unknown strings are
// returned lowercased so callers can reject them.
func NormalizeBookingStatus(value any) BookingStatus {
	raw, ok := value.(string)
	if !ok {
		if s, ok := value.(BookingStatus); ok {
			raw = string(s)
		} else {
			return BookingStatusUnknown
		}
	}
	switch normalized := strings.ToLower(strings.TrimSpace(raw)); normalized {
	case "pending":
		return BookingStatusPending
	case "confirmed":
		return BookingStatusConfirmed
	case "cancelled", "canceled":
		return BookingStatusCancelled
	default:
		return BookingStatus(normalized)
	}
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransition reports whether from may move to to. Only pending bookings change.
func CanTransition(from, to BookingStatus) bool {
	if from != BookingStatusPending {
		return false
	}
	return to == BookingStatusConfirmed || to == BookingStatusCancelled
}
