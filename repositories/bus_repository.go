package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busticket/busticket_backend/models"
)

const BusesCollection = "buses"

type BusRepository struct {
	collection *mongo.Collection
}

func NewBusRepository(db *mongo.Database) *BusRepository {
	return &BusRepository{
		collection: db.Collection(BusesCollection),
	}
}

func (r *BusRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bus, error) {
	var bus models.Bus
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bus); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find bus: %w", err)
	}
	return &bus, nil
}

// ReserveSeats adds seats to seatsBooked only if none of them is taken yet.
// It returns ErrNotFound when the bus is missing or a seat is already booked.
func (r *BusRepository) ReserveSeats(ctx context.Context, id primitive.ObjectID, seats []int) error {
	filter := bson.M{"_id": id, "seatsBooked": bson.M{"$nin": seats}}
	update := bson.M{
		"$push": bson.M{"seatsBooked": bson.M{"$each": seats}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseSeats removes seats from seatsBooked.
func (r *BusRepository) ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats []int) error {
	update := bson.M{
		"$pullAll": bson.M{"seatsBooked": seats},
		"$set":     bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	return nil
}
