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

const PreferencesCollection = "userPreferences"

// PreferencesRepository stores one preferences document per user. Fields
// cleared by Reset are absent in the stored document; decoding starts from
// the defaults so they read back as default values.
type PreferencesRepository struct {
	collection *mongo.Collection
}

func NewPreferencesRepository(db *mongo.Database) *PreferencesRepository {
	return &PreferencesRepository{
		collection: db.Collection(PreferencesCollection),
	}
}

// GetOrCreate returns the user's preferences, inserting the defaults in the
// same atomic upsert when none exist.
func (r *PreferencesRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	now := time.Now()
	d := models.DefaultPreferences(userID)
	update := bson.M{"$setOnInsert": bson.M{
		"notifications": d.Notifications,
		"quietHours":    d.QuietHours,
		"language":      d.Language,
		"timezone":      d.Timezone,
		"frequency":     d.Frequency,
		"createdAt":     now,
		"updatedAt":     now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	prefs, err := r.decode(userID, r.collection.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the insert race on the unique index; the winner's document is there now.
		prefs, err = r.decode(userID, r.collection.FindOne(ctx, bson.M{"user": userID}))
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Replace sets the supplied top-level fields, creating the document if needed.
func (r *PreferencesRepository) Replace(ctx context.Context, userID primitive.ObjectID, u models.PreferencesUpdate) (*models.UserPreferences, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if u.Notifications != nil {
		set["notifications"] = *u.Notifications
	}
	if u.QuietHours != nil {
		set["quietHours"] = *u.QuietHours
	}
	if u.Language != nil {
		set["language"] = *u.Language
	}
	if u.Timezone != nil {
		set["timezone"] = *u.Timezone
	}
	if u.Frequency != nil {
		set["frequency"] = *u.Frequency
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	prefs, err := r.decode(userID, r.collection.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts))
	if err != nil {
		return nil, fmt.Errorf("replace preferences: %w", err)
	}
	return prefs, nil
}

// SetNotificationType flips a single channel/type switch. Callers validate
// the keys; the path is only ever built from the closed enums.
func (r *PreferencesRepository) SetNotificationType(ctx context.Context, userID primitive.ObjectID, channel models.Channel, nt models.NotificationType, enabled bool) (*models.UserPreferences, error) {
	path := fmt.Sprintf("notifications.%s.types.%s", channel, nt)
	return r.updateExisting(ctx, userID, bson.M{path: enabled})
}

// ToggleCategory flips the enabled flag of a whole channel.
func (r *PreferencesRepository) ToggleCategory(ctx context.Context, userID primitive.ObjectID, channel models.Channel, enabled bool) (*models.UserPreferences, error) {
	path := fmt.Sprintf("notifications.%s.enabled", channel)
	return r.updateExisting(ctx, userID, bson.M{path: enabled})
}

// SetQuietHours updates the enabled flag and, when given, start and end.
func (r *PreferencesRepository) SetQuietHours(ctx context.Context, userID primitive.ObjectID, enabled bool, start, end *string) (*models.UserPreferences, error) {
	set := bson.M{"quietHours.enabled": enabled}
	if start != nil {
		set["quietHours.start"] = *start
	}
	if end != nil {
		set["quietHours.end"] = *end
	}
	return r.updateExisting(ctx, userID, set)
}

// Reset unsets every configurable field so the defaults apply again.
func (r *PreferencesRepository) Reset(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	update := bson.M{
		"$unset": bson.M{
			"notifications": 1,
			"quietHours":    1,
			"language":      1,
			"timezone":      1,
			"frequency":     1,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	prefs, err := r.decode(userID, r.collection.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reset preferences: %w", err)
	}
	return prefs, nil
}

func (r *PreferencesRepository) updateExisting(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.UserPreferences, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	prefs, err := r.decode(userID, r.collection.FindOneAndUpdate(ctx, bson.M{"user": userID}, bson.M{"$set": set}, opts))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return prefs, nil
}

// decode fills a defaults value from res; absent paths keep the default.
func (r *PreferencesRepository) decode(userID primitive.ObjectID, res *mongo.SingleResult) (*models.UserPreferences, error) {
	prefs := models.DefaultPreferences(userID)
	if err := res.Decode(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}
