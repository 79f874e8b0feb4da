package clock

import (
	"context"
	"errors"
	"fmt"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sessionDocument is a row of the session table, keyed by session id.
type sessionDocument struct {
	Key          string `bson:"_id"`
	ClockSession `bson:",inline"`
}

// currentRef is the per-user slot. SessionID is nil while the user is clocked out.
type currentRef struct {
	UserID        string    `bson:"_id"`
	SessionID     *string   `bson:"session_id"`
	LastSessionID *string   `bson:"last_session_id,omitempty"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// MongoStore keeps open sessions in a session table, a per-user reference
// to the open one, and closed sessions in the archive collection keyed by
// archive key.
type MongoStore struct {
	sessions *mongo.Collection
	current  *mongo.Collection
	archive  *mongo.Collection
	now      func() time.Time
}

func NewMongoStore(db *mongo.Database, collections config.Collections) *MongoStore {
	return &MongoStore{
		sessions: db.Collection(collections.ClockSessions),
		current:  db.Collection(collections.CurrentSessions),
		archive:  db.Collection(collections.CompletedSessions),
		now:      time.Now,
	}
}

// EnsureIndexes creates the indexes history and stats queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.archive.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "clock_in_time", Value: -1}}},
		{Keys: bson.D{{Key: "clock_in_time", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("archive indexes: %w", err)
	}

	_, err = s.current.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("current session indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) ReadCurrent(ctx context.Context, userID string) (*ClockSession, error) {
	var ref currentRef
	err := s.current.FindOne(ctx, bson.M{"_id": userID}).Decode(&ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	if ref.SessionID == nil || *ref.SessionID == "" {
		return nil, nil
	}

	var doc sessionDocument
	err = s.sessions.FindOne(ctx, bson.M{"_id": *ref.SessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": *ref.SessionID,
		}).Warn("Current session reference points to a missing session")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}

	session := doc.ClockSession
	return &session, nil
}

func (s *MongoStore) WriteCurrent(ctx context.Context, userID string, session *ClockSession) error {
	if session == nil {
		return s.clearCurrent(ctx, userID)
	}

	doc := sessionDocument{Key: session.ID, ClockSession: *session}
	if _, err := s.sessions.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}

	// Matches only an empty slot or one already pointing at this session. An
	// occupied slot makes the upsert collide on _id.
	filter := bson.M{
		"_id":        userID,
		"session_id": bson.M{"$in": bson.A{nil, session.ID}},
	}
	update := bson.M{
		"$set": bson.M{
			"session_id": session.ID,
			"updated_at": s.now().UTC(),
		},
	}
	_, err := s.current.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrSessionAlreadyOpen
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}
	return nil
}

func (s *MongoStore) clearCurrent(ctx context.Context, userID string) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "last_session_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$session_id", "$last_session_id"}}}},
			{Key: "session_id", Value: nil},
			{Key: "updated_at", Value: s.now().UTC()},
		}}},
	}
	if _, err := s.current.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}
	return nil
}

func (s *MongoStore) AppendArchive(ctx context.Context, key string, session *ClockSession) (*ClockSession, error) {
	stored := session.Clone()
	stored.ArchiveKey = key

	_, err := s.archive.InsertOne(ctx, sessionDocument{Key: key, ClockSession: *stored})
	if err == nil {
		return stored, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}

	var existing sessionDocument
	if err := s.archive.FindOne(ctx, bson.M{"_id": key}).Decode(&existing); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	if existing.ID != session.ID {
		return nil, models.ErrArchiveConflict
	}

	logrus.WithFields(logrus.Fields{
		"archive_key": key,
		"session_id":  session.ID,
	}).Debug("Session already archived, returning stored record")
	result := existing.ClockSession
	return &result, nil
}

func (s *MongoStore) ReadArchive(ctx context.Context, filter ArchiveFilter) ([]*ClockSession, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.From != nil || filter.To != nil {
		span := bson.M{}
		if filter.From != nil {
			span["$gte"] = filter.From.UTC()
		}
		if filter.To != nil {
			span["$lte"] = filter.To.UTC()
		}
		query["clock_in_time"] = span
	}

	opts := options.Find().SetSort(bson.D{{Key: "clock_in_time", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.archive.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	defer cursor.Close(ctx)

	sessions := make([]*ClockSession, 0)
	for cursor.Next(ctx) {
		var doc sessionDocument
		if err := cursor.Decode(&doc); err != nil {
			logrus.WithError(err).Warn("Failed to decode archived session")
			continue
		}
		session := doc.ClockSession
		sessions = append(sessions, &session)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	return sessions, nil
}

func (s *MongoStore) UpdateNotes(ctx context.Context, userID, sessionID, notes string) error {
	count, err := s.current.CountDocuments(ctx, bson.M{"_id": userID, "session_id": sessionID})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	if count == 0 {
		return models.ErrSessionArchived
	}

	result, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": sessionID, "user_id": userID},
		bson.M{"$set": bson.M{"notes": notes}},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionArchived
	}
	return nil
}

func (s *MongoStore) CountOpen(ctx context.Context) (int64, error) {
	count, err := s.current.CountDocuments(ctx, bson.M{"session_id": bson.M{"$ne": nil}})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	return count, nil
}
