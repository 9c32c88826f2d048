package domain

import "fmt"

const (
	// SlotCapacity is the maximum combined party size per slot.
	SlotCapacity = 50

	firstSlotHour = 11
	lastSlotHour  = 22
)

type TimeSlot struct {
	Time      string `json:"time"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available bool   `json:"available"`
}

var slotLabels = buildSlotLabels()

func buildSlotLabels() []string {
	labels := make([]string, 0, (lastSlotHour-firstSlotHour)*2+1)
	for hour := firstSlotHour; hour <= lastSlotHour; hour++ {
		labels = append(labels, fmt.Sprintf("%d:00", hour))
		if hour < lastSlotHour {
			labels = append(labels, fmt.Sprintf("%d:30", hour))
		}
	}
	return labels
}

// SlotLabels returns the half-hour grid from 11:00 to 22:00.
func SlotLabels() []string {
	return append([]string(nil), slotLabels...)
}

func IsSlotLabel(label string) bool {
	for _, l := range slotLabels {
		if l == label {
			return true
		}
	}
	return false
}

// ComputeAvailability sums the party sizes of active bookings per slot. Labels
// outside the grid do not count toward any slot.
func ComputeAvailability(bookings []Booking) []TimeSlot {
	booked := make(map[string]int, len(slotLabels))
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		booked[b.Time] += b.PartySize
	}
	slots := make([]TimeSlot, 0, len(slotLabels))
	for _, label := range slotLabels {
		n := booked[label]
		slots = append(slots, TimeSlot{
			Time:      label,
			Capacity:  SlotCapacity,
			Booked:    n,
			Available: n < SlotCapacity,
		})
	}
	return slots
}

// Availability is the grid for one restaurant and date.
type Availability struct {
	RestaurantID string     `json:"restaurantId"`
	Date         string     `json:"date"`
	Slots        []TimeSlot `json:"slots"`
}
