package station

import (
	"context"
	"strconv"
	"strings"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ActivityPublisher interface {
	PublishActivityWithDetails(ctx context.Context, message models.ActivityMessage) error
}

type Service interface {
	Create(ctx context.Context, req *Request, adminID string) (*Station, error)
	Update(ctx context.Context, id string, req *Request, adminID string) (*Station, error)
	SetActive(ctx context.Context, id string, active bool, adminID string) (*Station, error)
	GetByID(ctx context.Context, id string) (*Station, error)
	List(ctx context.Context, filter string) ([]*Station, error)
	ListActive(ctx context.Context) ([]*Station, error)
	CountActive(ctx context.Context) (int64, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type stationService struct {
	repository   Repository
	cacheService cache.Service
	activity     ActivityPublisher
	now          func() time.Time
}

func NewStationService(repository Repository, cacheService cache.Service, activity ActivityPublisher) Service {
	return &stationService{
		repository:   repository,
		cacheService: cacheService,
		activity:     activity,
		now:          time.Now,
	}
}

func (s *stationService) Create(ctx context.Context, req *Request, adminID string) (*Station, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	station := s.newStation(req, adminID)
	if err := s.repository.Create(ctx, station); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"station_id":    station.ID,
		"name":          station.Name,
		"admin_user_id": adminID,
	}).Info("Station created")

	s.afterChange(ctx, adminID, station.ID, "create")
	return station, nil
}

func (s *stationService) Update(ctx context.Context, id string, req *Request, adminID string) (*Station, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	station, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	station.Name = strings.TrimSpace(req.Name)
	station.Address = strings.TrimSpace(req.Address)
	station.UpdatedBy = &adminID
	station.UpdatedAt = &now

	if err := s.repository.Update(ctx, station); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"station_id":    id,
		"admin_user_id": adminID,
	}).Info("Station updated")

	s.afterChange(ctx, adminID, id, "update")
	return station, nil
}

// SetActive toggles the station in or out of the clock-in catalog. Stations
// are never removed so archived sessions stay resolvable.
func (s *stationService) SetActive(ctx context.Context, id string, active bool, adminID string) (*Station, error) {
	if id == "" {
		return nil, models.ErrInvalidParams
	}

	if err := s.repository.SetActive(ctx, id, active, adminID, s.now().UTC()); err != nil {
		return nil, err
	}

	station, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"station_id":    id,
		"is_active":     active,
		"admin_user_id": adminID,
	}).Info("Station status changed")

	s.afterChange(ctx, adminID, id, "active="+strconv.FormatBool(active))
	return station, nil
}

func (s *stationService) GetByID(ctx context.Context, id string) (*Station, error) {
	if id == "" {
		return nil, models.ErrInvalidParams
	}
	return s.repository.GetByID(ctx, id)
}

func (s *stationService) List(ctx context.Context, filter string) ([]*Station, error) {
	active, ok := activeFilter(filter)
	if !ok {
		return nil, models.ErrInvalidParams
	}
	return s.repository.List(ctx, active)
}

func (s *stationService) ListActive(ctx context.Context) ([]*Station, error) {
	return s.List(ctx, FilterActive)
}

func (s *stationService) CountActive(ctx context.Context) (int64, error) {
	active, _ := activeFilter(FilterActive)
	return s.repository.Count(ctx, active)
}

// SeedDefaults inserts DefaultStations when no station exists yet and
// reports how many were inserted.
func (s *stationService) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.repository.Count(ctx, nil)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logrus.WithField("existing", count).Info("Stations already present, skipping seed")
		return 0, nil
	}

	stations := make([]*Station, len(DefaultStations))
	for i := range DefaultStations {
		stations[i] = s.newStation(&DefaultStations[i], SystemUser)
	}
	if err := s.repository.CreateMany(ctx, stations); err != nil {
		return 0, err
	}

	if err := s.cacheService.InvalidateCatalog(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate catalog cache")
	}
	logrus.WithField("count", len(stations)).Info("Default stations seeded")
	return len(stations), nil
}

func (s *stationService) newStation(req *Request, createdBy string) *Station {
	return &Station{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	}
}

func (s *stationService) afterChange(ctx context.Context, adminID, stationID, change string) {
	if err := s.cacheService.InvalidateCatalog(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate catalog cache")
	}
	if err := s.cacheService.InvalidateStats(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate stats cache")
	}

	if s.activity == nil {
		return
	}
	err := s.activity.PublishActivityWithDetails(ctx, models.ActivityMessage{
		UserID:      adminID,
		ServiceName: models.ServiceAdminStations,
		Action:      models.ActionStationChanged,
		Metadata: map[string]string{
			"station_id": stationID,
			"change":     change,
		},
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		logrus.WithError(err).WithField("station_id", stationID).Warn("Failed to publish station activity")
	}
}

func validate(req *Request) error {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Address) == "" {
		return models.ErrInvalidParams
	}
	return nil
}
