package domain

import (
	"errors"
	"strings"
)

const UsersCollection = "users"

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleAdmin           Role = "admin"
)

// NormalizeRole maps free-form input onto a known role; unknown values yield "".
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "customer":
		return RoleCustomer
	case "restaurant_owner", "owner", "restaurant-owner":
		return RoleRestaurantOwner
	case "admin":
		return RoleAdmin
	default:
		return ""
	}
}

var (
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("forbidden")
)

// User is the profile document stored at users/{uid}.
type User struct {
	UID         string `json:"uid" bson:"_id"`
	Email       string `json:"email" bson:"email"`
	DisplayName string `json:"displayName" bson:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	Role        Role   `json:"role" bson:"role"`
}

func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Identity is what an auth provider knows about an account.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// ProfileData is supplied at sign-up. Extras are written last and override
// the computed display name and photo; they never touch identity or role.
type ProfileData struct {
	DisplayName string         `json:"displayName,omitempty"`
	Role        string         `json:"role,omitempty" validate:"omitempty,oneof=customer restaurant_owner admin"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// RequestedRole is the role asked for, customer when none was given.
func (p ProfileData) RequestedRole() Role {
	if role := NormalizeRole(p.Role); role != "" {
		return role
	}
	return RoleCustomer
}

// protectedFields are owned by the provider identity and the validated role.
var protectedFields = map[string]struct{}{
	"uid":   {},
	"_id":   {},
	"email": {},
	"role":  {},
}

func extraAllowed(key string) bool {
	if key == "" || strings.ContainsAny(key, ".$") {
		return false
	}
	_, protected := protectedFields[strings.ToLower(key)]
	return !protected
}

// BuildProfile merges the provider identity with the supplied profile data
// into the fields written to users/{uid}.
func BuildProfile(id Identity, profile ProfileData) map[string]any {
	displayName := strings.TrimSpace(id.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(profile.DisplayName)
	}
	fields := map[string]any{
		"uid":         id.UID,
		"email":       id.Email,
		"displayName": displayName,
		"photoURL":    id.PhotoURL,
		"role":        string(profile.RequestedRole()),
	}
	for key, value := range profile.Extras {
		if key = strings.TrimSpace(key); extraAllowed(key) {
			fields[key] = value
		}
	}
	return fields
}
