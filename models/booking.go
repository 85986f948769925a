package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking model
type Booking struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user" bson:"user"`
	BusID         primitive.ObjectID `json:"bus" bson:"bus"`
	Seats         []int              `json:"seats" bson:"seats"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Status        string             `json:"status" bson:"status"` // "confirmed", "cancelled"
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UpcomingBooking is a confirmed booking joined with the bus it was made on.
type UpcomingBooking struct {
	Booking `bson:",inline"`
	Bus     Bus `json:"busInfo" bson:"busInfo"`
}

// BookSeatRequest model
type BookSeatRequest struct {
	BusID         string `json:"bus" validate:"required"`
	Seats         []int  `json:"seats" validate:"required,min=1,dive,min=1"`
	TransactionID string `json:"transactionId,omitempty"`
}
