package transport

import (
	"strings"

	domain "mesaYaBooking/internal/modules/realtime/domain"
)

func buildTopics(entity string, allowedActions []string) []string {
	entity = domain.NormalizeEntity(entity)
	baseTopics := []string{
		domain.SnapshotTopic(entity),
		domain.ListTopic(entity),
		domain.DetailTopic(entity),
		domain.ErrorTopic(entity),
	}
	topics := make([]string, 0, len(baseTopics)+len(allowedActions))
	seen := make(map[string]struct{}, len(baseTopics)+len(allowedActions))
	add := func(topic string) {
		if topic == "" {
			return
		}
		if _, exists := seen[topic]; exists {
			return
		}
		topics = append(topics, topic)
		seen[topic] = struct{}{}
	}
	for _, topic := range baseTopics {
		add(topic)
	}
	for _, action := range allowedActions {
		add(domain.CustomTopic(entity, strings.ToLower(action)))
	}
	return topics
}

// directoryTopics are the change events a directory stream listens to.
func directoryTopics(allowedActions []string) []string {
	topics := buildTopics(domain.EntityRestaurants, allowedActions)
	return append(topics, buildTopics(domain.EntityReviews, []string{domain.ActionCreated})...)
}

// accountTopics are the events of a signed-in user's personal stream. The hub
// narrows them to the user through the userId metadata.
func accountTopics() []string {
	topics := []string{
		domain.CustomTopic(domain.EntityUsers, domain.ActionCreated),
		domain.CustomTopic(domain.EntityUsers, domain.ActionUpdated),
	}
	return append(topics, buildTopics(domain.EntityBookings, []string{
		domain.ActionCreated,
		domain.ActionConfirmed,
		domain.ActionCancelled,
	})...)
}
