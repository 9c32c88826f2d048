package domain

import "time"

// Review is the document stored at reviews/{id}. Ratings are not folded
// back into the restaurant.
type Review struct {
	ID           string    `json:"id" bson:"_id"`
	RestaurantID string    `json:"restaurantId" bson:"restaurantId"`
	UserID       string    `json:"userId" bson:"userId"`
	UserName     string    `json:"userName" bson:"userName"`
	Rating       int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment      string    `json:"comment" bson:"comment" validate:"max=2000"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
