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

func TestBookingRepository_ConfirmedForDate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("joins bookings with the day's buses", func(mt *mtest.T) {
		morning, evening := primitive.NewObjectID(), primitive.NewObjectID()
		buses := mtest.CreateCursorResponse(0, "busticket."+BusesCollection, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: morning}, {Key: "from", Value: "Pune"}, {Key: "to", Value: "Goa"}, {Key: "journeyDate", Value: "2024-03-15"}, {Key: "departure", Value: "07:00"}},
			bson.D{{Key: "_id", Value: evening}, {Key: "from", Value: "Pune"}, {Key: "to", Value: "Nagpur"}, {Key: "journeyDate", Value: "2024-03-15"}, {Key: "departure", Value: "21:15"}},
		)
		bookings := mtest.CreateCursorResponse(0, "busticket."+BookingsCollection, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user", Value: primitive.NewObjectID()}, {Key: "bus", Value: evening}, {Key: "status", Value: models.BookingStatusConfirmed}},
		)
		mt.AddMockResponses(buses, bookings)
		repo := NewBookingRepository(mt.DB)

		out, err := repo.ConfirmedForDate(ctx, "2024-03-15")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, evening, out[0].BusID)
		assert.Equal(t, evening, out[0].Bus.ID)
		assert.Equal(t, "Nagpur", out[0].Bus.To)
		assert.Equal(t, "21:15", out[0].Bus.Departure)
	})

	mt.Run("no buses means no booking query", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "busticket."+BusesCollection, mtest.FirstBatch))
		repo := NewBookingRepository(mt.DB)

		out, err := repo.ConfirmedForDate(ctx, "2024-03-16")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
