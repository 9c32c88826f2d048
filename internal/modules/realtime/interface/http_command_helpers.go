package transport

import (
	domain "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
	"mesaYaBooking/internal/platform/livequery"
)

// pumpSubscription forwards every value of sub to the client until the
// subscription is closed.
func pumpSubscription[T any](client *infrastructure.Client, sub *livequery.Subscription[T], build func(T) *domain.Message) {
	for value := range sub.C() {
		client.SendDomainMessage(build(value))
	}
}
