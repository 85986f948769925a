package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/busticket/busticket_backend/models"
)

const BookingsCollection = "bookings"

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		collection: db.Collection(BookingsCollection),
	}
}

func (r *BookingRepository) Insert(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// FindForUser returns a booking only if it belongs to userID.
func (r *BookingRepository) FindForUser(ctx context.Context, userID, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "user": userID}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &b, nil
}

// Cancel moves a confirmed booking owned by userID to cancelled.
func (r *BookingRepository) Cancel(ctx context.Context, userID, id primitive.ObjectID) (*models.Booking, error) {
	filter := bson.M{"_id": id, "user": userID, "status": models.BookingStatusConfirmed}
	update := bson.M{"$set": bson.M{"status": models.BookingStatusCancelled, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b models.Booking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return &b, nil
}

// ConfirmedForDate returns confirmed bookings whose bus travels on
// journeyDate (YYYY-MM-DD), each joined with its bus. The buses for the day are
// resolved first so only their bookings are read.
func (r *BookingRepository) ConfirmedForDate(ctx context.Context, journeyDate string) ([]models.UpcomingBooking, error) {
	buses := r.collection.Database().Collection(BusesCollection)
	busCursor, err := buses.Find(ctx, bson.M{"journeyDate": journeyDate})
	if err != nil {
		return nil, fmt.Errorf("find buses for %s: %w", journeyDate, err)
	}
	var day []models.Bus
	if err := busCursor.All(ctx, &day); err != nil {
		return nil, fmt.Errorf("decode buses: %w", err)
	}
	if len(day) == 0 {
		return nil, nil
	}

	byID := make(map[primitive.ObjectID]models.Bus, len(day))
	ids := make([]primitive.ObjectID, 0, len(day))
	for _, bus := range day {
		byID[bus.ID] = bus
		ids = append(ids, bus.ID)
	}

	filter := bson.M{"status": models.BookingStatusConfirmed, "bus": bson.M{"$in": ids}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find upcoming bookings: %w", err)
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode upcoming bookings: %w", err)
	}

	out := make([]models.UpcomingBooking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, models.UpcomingBooking{Booking: b, Bus: byID[b.BusID]})
	}
	return out, nil
}
