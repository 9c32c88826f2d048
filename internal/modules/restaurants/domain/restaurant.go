package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"mesaYaBooking/internal/shared/validation"
)

const (
	RestaurantsCollection = "restaurants"
	ReviewsCollection     = "reviews"

	// FeaturedLimit caps the featured listing.
	FeaturedLimit = 6
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrEmptyPatch         = errors.New("patch has no fields")
	ErrMissingID          = errors.New("missing restaurant id")
	ErrUnknownCommand     = errors.New("unknown directory command")
)

type PriceRange string

const (
	PriceBudget     PriceRange = "$"
	PriceModerate   PriceRange = "$$"
	PriceUpscale    PriceRange = "$$$"
	PriceFineDining PriceRange = "$$$$"
)

// Restaurant is the document stored at restaurants/{id}.
type Restaurant struct {
	ID           string       `json:"id" bson:"_id"`
	Name         string       `json:"name" bson:"name" validate:"required,max=120"`
	Description  string       `json:"description" bson:"description" validate:"max=2000"`
	Cuisine      string       `json:"cuisine" bson:"cuisine" validate:"required"`
	PriceRange   PriceRange   `json:"priceRange" bson:"priceRange" validate:"required,oneof=$ $$ $$$ $$$$"`
	Rating       float64      `json:"rating" bson:"rating" validate:"gte=0,lte=5"`
	ReviewCount  int          `json:"reviewCount" bson:"reviewCount" validate:"gte=0"`
	Address      string       `json:"address" bson:"address" validate:"required"`
	City         string       `json:"city" bson:"city" validate:"required"`
	Phone        string       `json:"phone" bson:"phone"`
	Email        string       `json:"email" bson:"email" validate:"omitempty,email"`
	Website      string       `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url"`
	ImageURLs    []string     `json:"imageUrls" bson:"imageUrls"`
	OpeningHours OpeningHours `json:"openingHours" bson:"openingHours"`
	Amenities    []string     `json:"amenities" bson:"amenities"`
	OwnerID      string       `json:"ownerId" bson:"ownerId"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	Featured     bool         `json:"featured" bson:"featured"`
}

// Validate checks the field rules and normalizes the opening hours in place.
func (r *Restaurant) Validate() error {
	errs := validation.Errors{}
	if err := validation.Struct(r); err != nil {
		var fields validation.Errors
		if !errors.As(err, &fields) {
			return err
		}
		for k, v := range fields {
			errs[k] = v
		}
	}
	hours, err := r.OpeningHours.Normalize()
	if err != nil {
		var fields validation.Errors
		if !errors.As(err, &fields) {
			return err
		}
		for k, v := range fields {
			errs[k] = v
		}
	} else {
		r.OpeningHours = hours
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DistinctCuisines returns every cuisine once, sorted.
func DistinctCuisines(restaurants []Restaurant) []string {
	seen := make(map[string]struct{}, len(restaurants))
	out := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		cuisine := strings.TrimSpace(r.Cuisine)
		if cuisine == "" {
			continue
		}
		if _, ok := seen[cuisine]; ok {
			continue
		}
		seen[cuisine] = struct{}{}
		out = append(out, cuisine)
	}
	sort.Strings(out)
	return out
}
