package user

import (
	"context"
	"errors"
	"regexp"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	regexKey   = "$regex"
	optionsKey = "$options"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
	GetAllUsers(ctx context.Context, req *GetAllUsersRequest) ([]*User, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	EnsureIndexes(ctx context.Context) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collectionName string) Repository {
	return &userRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrEmailTaken
	}
	if err != nil {
		logrus.WithError(err).WithField("email", user.Email).Error("Failed to create user")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to get user")
		return nil, models.ErrDatabaseQuery
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (r *userRepository) GetAllUsers(ctx context.Context, req *GetAllUsersRequest) ([]*User, int64, error) {
	filter := bson.M{}

	if req.Role != "" {
		filter["role"] = req.Role
	}

	if req.Search != "" {
		search := regexp.QuoteMeta(req.Search)
		filter["$or"] = []bson.M{
			{"first_name": bson.M{regexKey: search, optionsKey: "i"}},
			{"last_name": bson.M{regexKey: search, optionsKey: "i"}},
			{"email": bson.M{regexKey: search, optionsKey: "i"}},
		}
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count users")
		return nil, 0, models.ErrDatabaseQuery
	}

	skip := (req.Page - 1) * req.Limit
	opts := options.Find().
		SetLimit(int64(req.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "first_name", Value: 1}, {Key: "last_name", Value: 1}})

	users, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	logrus.WithFields(logrus.Fields{
		"count": len(users),
		"total": totalCount,
		"page":  req.Page,
		"limit": req.Limit,
	}).Debug("Retrieved users successfully")

	return users, totalCount, nil
}

func (r *userRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find users")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	users := make([]*User, 0)
	for cursor.Next(ctx) {
		var user User
		if err := cursor.Decode(&user); err != nil {
			logrus.WithError(err).Error("Failed to decode user")
			continue
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		logrus.WithError(err).WithField("role", role).Error("Failed to count users")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login_at": at, "updated_at": at},
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update last login")
		return models.ErrDatabaseUpdate
	}
	return nil
}
