package user

import (
	"context"
	"surihub-timeclock-svc/src/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), &User{ID: "u1", Email: "a@b.co"})
		assert.ErrorIs(mt, err, models.ErrEmailTaken)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "a@b.co"},
			{Key: "first_name", Value: "Achieng"},
			{Key: "password_hash", Value: "hash"},
			{Key: "role", Value: RoleEmployee},
		}))

		u, err := repo.GetByEmail(context.Background(), "a@b.co")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", u.ID)
		assert.Equal(mt, "hash", u.PasswordHash)
	})

	mt.Run("get by id missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})

	mt.Run("get by ids skips query when empty", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")

		users, err := repo.GetByIDs(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, users)
	})

	mt.Run("list escapes search", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "u1"},
				{Key: "first_name", Value: "A.B"},
			}),
		)

		users, total, err := repo.GetAllUsers(context.Background(), &GetAllUsersRequest{Page: 1, Limit: 20, Search: "a.b"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), total)
		require.Len(mt, users, 1)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "find", events[1].CommandName)
		assert.Contains(mt, events[1].Command.Lookup("filter").String(), `a\\.b`)
	})

	mt.Run("count by role", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(4)}}))

		count, err := repo.CountByRole(context.Background(), RoleAdmin)
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), count)
	})
}
