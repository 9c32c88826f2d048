package domain

import "strings"

const (
	SystemEntity = "system"

	TopicSystemConnected = SystemEntity + ".connected"
	TopicSystemPong      = SystemEntity + ".pong"
	TopicSystemError     = SystemEntity + ".error"
	TopicSystemSignedOut = SystemEntity + ".signed_out"

	EntityRestaurants  = "restaurants"
	EntityBookings     = "bookings"
	EntityReviews      = "reviews"
	EntityUsers        = "users"
	EntityAvailability = "availability"

	ActionConnected = "connected"
	ActionPong      = "pong"
	ActionError     = "error"
	ActionList      = "list"
	ActionDetail    = "detail"
	ActionSnapshot  = "snapshot"
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionConfirmed = "confirmed"
	ActionCancelled = "cancelled"
	ActionSignedOut = "signed_out"
)

// SnapshotTopic returns the canonical snapshot topic for the given entity.
func SnapshotTopic(entity string) string {
	return buildEntityTopic(entity, ActionSnapshot)
}

// ListTopic returns the canonical list topic for the given entity.
func ListTopic(entity string) string {
	return buildEntityTopic(entity, ActionList)
}

// DetailTopic returns the canonical detail topic for the given entity.
func DetailTopic(entity string) string {
	return buildEntityTopic(entity, ActionDetail)
}

// ErrorTopic returns the canonical error topic for the given entity.
func ErrorTopic(entity string) string {
	return buildEntityTopic(entity, ActionError)
}

// CustomTopic returns the canonical topic for the given entity and action.
func CustomTopic(entity, action string) string {
	return buildEntityTopic(entity, action)
}

func buildEntityTopic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.TrimSpace(action)
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}

// NormalizeEntity maps singular and alias spellings onto the canonical entity names.
func NormalizeEntity(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "", "-", "default":
		return ""
	case "restaurant", "restaurants", "directory":
		return EntityRestaurants
	case "booking", "bookings", "reservation", "reservations":
		return EntityBookings
	case "review", "reviews":
		return EntityReviews
	case "user", "users", "auth-users", "auth_users":
		return EntityUsers
	case "slot", "slots", "availability":
		return EntityAvailability
	default:
		return trimmed
	}
}
