package vehicle

import (
	"context"
	"surihub-timeclock-svc/src/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestVehicleRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create duplicate registration", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB, "vehicles")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Create(context.Background(), &Vehicle{ID: "v1", RegistrationNumber: "KDA 123A"})
		assert.ErrorIs(mt, err, models.ErrRegistrationTaken)
	})

	mt.Run("list sorted by make", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB, "vehicles")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.vehicles", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "v2"}, {Key: "make", Value: "Nissan"}, {Key: "status", Value: StatusActive}},
			bson.D{{Key: "_id", Value: "v1"}, {Key: "make", Value: "Toyota"}, {Key: "status", Value: StatusActive}},
		))

		vehicles, err := repo.List(context.Background(), StatusActive)
		require.NoError(mt, err)
		require.Len(mt, vehicles, 2)
		assert.Equal(mt, "Nissan", vehicles[0].Make)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, StatusActive, started.Command.Lookup("filter", "status").StringValue())
		assert.Equal(mt, int32(1), started.Command.Lookup("sort", "make").Int32())
	})

	mt.Run("set status on missing vehicle", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB, "vehicles")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetStatus(context.Background(), "v9", StatusRetired, "admin-1", time.Now())
		assert.ErrorIs(mt, err, models.ErrVehicleNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB, "vehicles")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(mt, repo.Delete(context.Background(), "v1"))
		assert.ErrorIs(mt, repo.Delete(context.Background(), "v1"), models.ErrVehicleNotFound)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB, "vehicles")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.vehicles", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "v1"},
			{Key: "make", Value: "Toyota"},
			{Key: "registration_number", Value: "KDA 123A"},
			{Key: "status", Value: StatusActive},
		}))

		v, err := repo.GetByID(context.Background(), "v1")
		require.NoError(mt, err)
		assert.Equal(mt, "KDA 123A", v.RegistrationNumber)
		assert.True(mt, v.IsActive())
	})
}
