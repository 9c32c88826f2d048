package domain

import "strings"

// Filters narrows a restaurant search. Every set field must match exactly.
type Filters struct {
	Cuisine    string `json:"cuisine,omitempty"`
	PriceRange string `json:"priceRange,omitempty"`
	City       string `json:"city,omitempty"`
}

type FilterOption func(*Filters)

// WithCuisine filters on cuisine; "all" leaves the cuisine unfiltered.
func WithCuisine(cuisine string) FilterOption {
	return func(f *Filters) {
		cuisine = strings.TrimSpace(cuisine)
		if strings.EqualFold(cuisine, "all") {
			cuisine = ""
		}
		f.Cuisine = cuisine
	}
}

func WithPriceRange(priceRange string) FilterOption {
	return func(f *Filters) { f.PriceRange = strings.TrimSpace(priceRange) }
}

func WithCity(city string) FilterOption {
	return func(f *Filters) { f.City = strings.TrimSpace(city) }
}

func NewFilters(opts ...FilterOption) Filters {
	var f Filters
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Normalize reapplies the option rules to a decoded Filters value.
func (f Filters) Normalize() Filters {
	return NewFilters(WithCuisine(f.Cuisine), WithPriceRange(f.PriceRange), WithCity(f.City))
}

func (f Filters) IsEmpty() bool {
	return f.Cuisine == "" && f.PriceRange == "" && f.City == ""
}

// Key is a stable identifier for cache and live query keys.
func (f Filters) Key() string {
	return "cuisine=" + f.Cuisine + "&priceRange=" + f.PriceRange + "&city=" + f.City
}
