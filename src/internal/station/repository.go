package station

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
	Create(ctx context.Context, station *Station) error
	CreateMany(ctx context.Context, stations []*Station) error
	Update(ctx context.Context, station *Station) error
	SetActive(ctx context.Context, id string, active bool, updatedBy string, at time.Time) error
	GetByID(ctx context.Context, id string) (*Station, error)
	List(ctx context.Context, active *bool) ([]*Station, error)
	Count(ctx context.Context, active *bool) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type stationRepository struct {
	collection *mongo.Collection
}

func NewStationRepository(db *mongo.Database, collectionName string) Repository {
	return &stationRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *stationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}},
	})
	return err
}

func (r *stationRepository) Create(ctx context.Context, station *Station) error {
	if _, err := r.collection.InsertOne(ctx, station); err != nil {
		logrus.WithError(err).WithField("name", station.Name).Error("Failed to create station")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *stationRepository) CreateMany(ctx context.Context, stations []*Station) error {
	docs := make([]interface{}, len(stations))
	for i, s := range stations {
		docs[i] = s
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		logrus.WithError(err).WithField("count", len(docs)).Error("Failed to create stations")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *stationRepository) Update(ctx context.Context, station *Station) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": station.ID}, bson.M{
		"$set": bson.M{
			"name":       station.Name,
			"address":    station.Address,
			"updated_by": station.UpdatedBy,
			"updated_at": station.UpdatedAt,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("station_id", station.ID).Error("Failed to update station")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrStationNotFound
	}
	return nil
}

func (r *stationRepository) SetActive(ctx context.Context, id string, active bool, updatedBy string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"is_active":  active,
			"updated_by": updatedBy,
			"updated_at": at,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("station_id", id).Error("Failed to toggle station")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrStationNotFound
	}
	return nil
}

func (r *stationRepository) GetByID(ctx context.Context, id string) (*Station, error) {
	var station Station
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&station)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrStationNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("station_id", id).Error("Failed to get station")
		return nil, models.ErrDatabaseQuery
	}
	return &station, nil
}

func (r *stationRepository) List(ctx context.Context, active *bool) ([]*Station, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filterFor(active), opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to list stations")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	stations := make([]*Station, 0)
	if err := cursor.All(ctx, &stations); err != nil {
		logrus.WithError(err).Error("Failed to decode stations")
		return nil, models.ErrDatabaseQuery
	}
	return stations, nil
}

func (r *stationRepository) Count(ctx context.Context, active *bool) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filterFor(active))
	if err != nil {
		logrus.WithError(err).Error("Failed to count stations")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

func filterFor(active *bool) bson.M {
	if active == nil {
		return bson.M{}
	}
	return bson.M{"is_active": *active}
}
