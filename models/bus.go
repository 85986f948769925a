package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JourneyDateLayout is the format buses store their journey date in.
const JourneyDateLayout = "2006-01-02"

// Bus model. Only the fields the booking and notification flows read are mapped.
type Bus struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Number      string             `json:"number" bson:"number"`
	From        string             `json:"from" bson:"from"`
	To          string             `json:"to" bson:"to"`
	JourneyDate string             `json:"journeyDate" bson:"journeyDate"` // YYYY-MM-DD
	Departure   string             `json:"departure" bson:"departure"`     // HH:MM
	Arrival     string             `json:"arrival" bson:"arrival"`
	Price       float64            `json:"price" bson:"price"`
	Capacity    int                `json:"capacity" bson:"capacity"`
	SeatsBooked []int              `json:"seatsBooked" bson:"seatsBooked"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasBooked reports whether any of seats is already taken on the bus.
func (b *Bus) HasBooked(seats []int) bool {
	taken := make(map[int]struct{}, len(b.SeatsBooked))
	for _, s := range b.SeatsBooked {
		taken[s] = struct{}{}
	}
	for _, s := range seats {
		if _, ok := taken[s]; ok {
			return true
		}
	}
	return false
}
