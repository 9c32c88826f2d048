package domain

import "mesaYaBooking/internal/shared/validation"

// Patch is a partial restaurant update; only non-nil fields are written.
type Patch struct {
	Name         *string       `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description  *string       `json:"description,omitempty" validate:"omitempty,max=2000"`
	Cuisine      *string       `json:"cuisine,omitempty" validate:"omitempty,min=1"`
	PriceRange   *PriceRange   `json:"priceRange,omitempty" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	Rating       *float64      `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	ReviewCount  *int          `json:"reviewCount,omitempty" validate:"omitempty,gte=0"`
	Address      *string       `json:"address,omitempty" validate:"omitempty,min=1"`
	City         *string       `json:"city,omitempty" validate:"omitempty,min=1"`
	Phone        *string       `json:"phone,omitempty"`
	Email        *string       `json:"email,omitempty" validate:"omitempty,email"`
	Website      *string       `json:"website,omitempty" validate:"omitempty,url"`
	ImageURLs    *[]string     `json:"imageUrls,omitempty"`
	OpeningHours *OpeningHours `json:"openingHours,omitempty"`
	Amenities    *[]string     `json:"amenities,omitempty"`
	Featured     *bool         `json:"featured,omitempty"`
}

// Fields validates the patch and returns the set fields keyed by document name.
func (p Patch) Fields() (map[string]any, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	set := func(name string, ok bool, value func() any) {
		if ok {
			fields[name] = value()
		}
	}
	set("name", p.Name != nil, func() any { return *p.Name })
	set("description", p.Description != nil, func() any { return *p.Description })
	set("cuisine", p.Cuisine != nil, func() any { return *p.Cuisine })
	set("priceRange", p.PriceRange != nil, func() any { return string(*p.PriceRange) })
	set("rating", p.Rating != nil, func() any { return *p.Rating })
	set("reviewCount", p.ReviewCount != nil, func() any { return *p.ReviewCount })
	set("address", p.Address != nil, func() any { return *p.Address })
	set("city", p.City != nil, func() any { return *p.City })
	set("phone", p.Phone != nil, func() any { return *p.Phone })
	set("email", p.Email != nil, func() any { return *p.Email })
	set("website", p.Website != nil, func() any { return *p.Website })
	set("imageUrls", p.ImageURLs != nil, func() any { return *p.ImageURLs })
	set("amenities", p.Amenities != nil, func() any { return *p.Amenities })
	set("featured", p.Featured != nil, func() any { return *p.Featured })
	if p.OpeningHours != nil {
		hours, err := p.OpeningHours.Normalize()
		if err != nil {
			return nil, err
		}
		fields["openingHours"] = hours
	}
	if len(fields) == 0 {
		return nil, ErrEmptyPatch
	}
	return fields, nil
}
