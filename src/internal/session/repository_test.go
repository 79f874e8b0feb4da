package session

import (
	"context"
	"surihub-timeclock-svc/src/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestSessionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "auth_sessions")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.auth_sessions", mtest.FirstBatch, bson.D{
			{Key: "session_id", Value: "sess-1"},
			{Key: "user_id", Value: "u1"},
			{Key: "role", Value: "employee"},
			{Key: "is_active", Value: true},
			{Key: "expires_at", Value: primitive.NewDateTimeFromTime(expires)},
		}))

		s, err := repo.GetByID(context.Background(), "sess-1")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", s.UserID)
		assert.True(mt, s.IsValid(time.Now()))
		assert.False(mt, s.IsValid(expires.Add(time.Second)))
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "auth_sessions")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.auth_sessions", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "sess-1")
		assert.ErrorIs(mt, err, models.ErrSessionNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "auth_sessions")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), &Session{SessionID: "sess-1", UserID: "u1", IsActive: true, ExpiresAt: expires})
		assert.NoError(mt, err)
	})

	mt.Run("deactivate", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "auth_sessions")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(mt, repo.Deactivate(context.Background(), "sess-1"))
		assert.ErrorIs(mt, repo.Deactivate(context.Background(), "sess-1"), models.ErrSessionInactive)
	})
}
