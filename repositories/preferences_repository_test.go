package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/busticket/busticket_backend/models"
)

func TestPreferencesRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get or create decodes absent fields as defaults", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "user", Value: userID},
				{Key: "language", Value: "hi"},
			}},
		})
		repo := NewPreferencesRepository(mt.DB)

		prefs, err := repo.GetOrCreate(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, prefs.UserID)
		assert.Equal(t, models.LanguageHindi, prefs.Language)
		assert.Equal(t, models.DefaultTimezone, prefs.Timezone)
		assert.Equal(t, models.DefaultNotificationSettings(), prefs.Notifications)
		assert.Equal(t, models.DefaultQuietHours(), prefs.QuietHours)
	})

	mt.Run("toggle category without a document", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}})
		repo := NewPreferencesRepository(mt.DB)

		_, err := repo.ToggleCategory(ctx, primitive.NewObjectID(), models.ChannelEmail, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("reset returns defaults", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "user", Value: userID},
			}},
		})
		repo := NewPreferencesRepository(mt.DB)

		prefs, err := repo.Reset(ctx, userID)
		require.NoError(t, err)
		assert.True(t, prefs.Notifications.Email.Enabled)
		assert.Equal(t, models.FrequencyImmediate, prefs.Frequency)
	})

	mt.Run("reset without a document", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}})
		repo := NewPreferencesRepository(mt.DB)

		_, err := repo.Reset(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
