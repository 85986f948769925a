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

const NotificationsCollection = "notifications"

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection(NotificationsCollection),
	}
}

// Insert stores n, filling in the id and timestamps when unset.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	prepareNotification(n, time.Now())
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// InsertMany stores the batch unordered. Documents that fail do not stop the
// others; the number actually inserted is returned alongside the error.
func (r *NotificationRepository) InsertMany(ctx context.Context, batch []models.Notification) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	now := time.Now()
	docs := make([]interface{}, len(batch))
	for i := range batch {
		prepareNotification(&batch[i], now)
		docs[i] = batch[i]
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return len(batch) - len(bwe.WriteErrors), fmt.Errorf("insert notifications: %w", err)
		}
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return len(batch), nil
}

// ListForUser returns one page, newest first, and the total matching count.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error) {
	filter := bson.M{"user": userID}
	if unreadOnly {
		filter["read"] = false
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	items, err := r.find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListSince returns notifications created after since, newest first.
func (r *NotificationRepository) ListSince(ctx context.Context, userID primitive.ObjectID, since time.Time, limit int) ([]models.Notification, error) {
	filter := bson.M{"user": userID, "createdAt": bson.M{"$gt": since}}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, findOptions)
}

func (r *NotificationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Notification, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.Notification{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead sets read=true on a notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}}

	var n models.Notification
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "user": userID}, update, opts).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &n, nil
}

// MarkAllRead flips every unread notification of userID and returns how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateMany(ctx, bson.M{"user": userID, "read": false}, update)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// Delete removes a notification owned by userID and returns it.
func (r *NotificationRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id, "user": userID}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete notification: %w", err)
	}
	return &n, nil
}

// ReminderExists is the journey reminder idempotency guard.
func (r *NotificationRepository) ReminderExists(ctx context.Context, userID, bookingID primitive.ObjectID, journeyDate string) (bool, error) {
	filter := bson.M{
		"user":                           userID,
		"type":                           models.NotificationTypeReminder,
		"data." + models.DataBookingID:   bookingID.Hex(),
		"data." + models.DataJourneyDate: journeyDate,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("look up reminder: %w", err)
	}
	return count > 0, nil
}

// InsertReminder stores a journey reminder. The partial unique index on
// (user, type, data.bookingId, data.journeyDate) rejects a second reminder for
// the same booking and date, which is reported as inserted == false.
func (r *NotificationRepository) InsertReminder(ctx context.Context, n *models.Notification) (bool, error) {
	prepareNotification(n, time.Now())
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert reminder: %w", err)
	}
	return true, nil
}

// DeleteExpired removes every notification whose expiresAt has passed. The
// TTL index does the same on its own schedule.
func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("delete expired notifications: %w", err)
	}
	return res.DeletedCount, nil
}

func prepareNotification(n *models.Notification, now time.Time) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
}
