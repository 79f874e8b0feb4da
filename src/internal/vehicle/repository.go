package vehicle

import (
	"context"
	"errors"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
	SetStatus(ctx context.Context, id, status, updatedBy string, at time.Time) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Vehicle, error)
	List(ctx context.Context, status string) ([]*Vehicle, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type vehicleRepository struct {
	collection *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database, collectionName string) Repository {
	return &vehicleRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *vehicleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "make", Value: 1}},
		},
	})
	return err
}

func (r *vehicleRepository) Create(ctx context.Context, v *Vehicle) error {
	_, err := r.collection.InsertOne(ctx, v)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrRegistrationTaken
	}
	if err != nil {
		logrus.WithError(err).WithField("registration_number", v.RegistrationNumber).Error("Failed to create vehicle")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *Vehicle) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{
		"$set": bson.M{
			"make":                v.Make,
			"model":               v.Model,
			"color":               v.Color,
			"registration_number": v.RegistrationNumber,
			"updated_by":          v.UpdatedBy,
			"updated_at":          v.UpdatedAt,
		},
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrRegistrationTaken
	}
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", v.ID).Error("Failed to update vehicle")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

func (r *vehicleRepository) SetStatus(ctx context.Context, id, status, updatedBy string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": at,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", id).Error("Failed to update vehicle status")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", id).Error("Failed to delete vehicle")
		return models.ErrDatabaseDelete
	}
	if result.DeletedCount == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	var v Vehicle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrVehicleNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", id).Error("Failed to get vehicle")
		return nil, models.ErrDatabaseQuery
	}
	return &v, nil
}

// List returns vehicles ordered by make then model. An empty status lists all.
func (r *vehicleRepository) List(ctx context.Context, status string) ([]*Vehicle, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "make", Value: 1}, {Key: "model", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to list vehicles")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	vehicles := make([]*Vehicle, 0)
	if err := cursor.All(ctx, &vehicles); err != nil {
		logrus.WithError(err).Error("Failed to decode vehicles")
		return nil, models.ErrDatabaseQuery
	}
	return vehicles, nil
}

func (r *vehicleRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		logrus.WithError(err).WithField("status", status).Error("Failed to count vehicles")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}
