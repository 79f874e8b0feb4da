package vehicle

import (
	"context"
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
	Create(ctx context.Context, req *Request, adminID string) (*Vehicle, error)
	Update(ctx context.Context, id string, req *Request, adminID string) (*Vehicle, error)
	Retire(ctx context.Context, id, adminID string) (*Vehicle, error)
	Delete(ctx context.Context, id, adminID string) error
	GetByID(ctx context.Context, id string) (*Vehicle, error)
	List(ctx context.Context, status string) ([]*Vehicle, error)
	ListActive(ctx context.Context) ([]*Vehicle, error)
	CountActive(ctx context.Context) (int64, error)
}

type vehicleService struct {
	repository   Repository
	cacheService cache.Service
	activity     ActivityPublisher
	now          func() time.Time
}

func NewVehicleService(repository Repository, cacheService cache.Service, activity ActivityPublisher) Service {
	return &vehicleService{
		repository:   repository,
		cacheService: cacheService,
		activity:     activity,
		now:          time.Now,
	}
}

func (s *vehicleService) Create(ctx context.Context, req *Request, adminID string) (*Vehicle, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	v := &Vehicle{
		ID:                 uuid.NewString(),
		Make:               req.Make,
		Model:              req.Model,
		Color:              req.Color,
		RegistrationNumber: NormalizeRegistration(req.RegistrationNumber),
		Status:             StatusActive,
		CreatedBy:          adminID,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.repository.Create(ctx, v); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"vehicle_id":          v.ID,
		"registration_number": v.RegistrationNumber,
		"admin_user_id":       adminID,
	}).Info("Vehicle created")

	s.afterChange(ctx, adminID, v.ID, "create")
	return v, nil
}

func (s *vehicleService) Update(ctx context.Context, id string, req *Request, adminID string) (*Vehicle, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	v, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v.Make = req.Make
	v.Model = req.Model
	v.Color = req.Color
	v.RegistrationNumber = NormalizeRegistration(req.RegistrationNumber)
	v.UpdatedBy = &adminID
	v.UpdatedAt = &now

	if err := s.repository.Update(ctx, v); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"vehicle_id":    v.ID,
		"admin_user_id": adminID,
	}).Info("Vehicle updated")

	s.afterChange(ctx, adminID, v.ID, "update")
	return v, nil
}

func (s *vehicleService) Retire(ctx context.Context, id, adminID string) (*Vehicle, error) {
	if id == "" {
		return nil, models.ErrInvalidParams
	}

	now := s.now().UTC()
	if err := s.repository.SetStatus(ctx, id, StatusRetired, adminID, now); err != nil {
		return nil, err
	}

	v, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"vehicle_id":    id,
		"admin_user_id": adminID,
	}).Info("Vehicle retired")

	s.afterChange(ctx, adminID, id, "retire")
	return v, nil
}

// Delete removes the vehicle. Archived sessions keep their own copy of it.
func (s *vehicleService) Delete(ctx context.Context, id, adminID string) error {
	if id == "" {
		return models.ErrInvalidParams
	}
	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"vehicle_id":    id,
		"admin_user_id": adminID,
	}).Info("Vehicle deleted")

	s.afterChange(ctx, adminID, id, "delete")
	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	if id == "" {
		return nil, models.ErrInvalidParams
	}
	return s.repository.GetByID(ctx, id)
}

func (s *vehicleService) List(ctx context.Context, status string) ([]*Vehicle, error) {
	if status != "" && !isValidStatus(status) {
		return nil, models.ErrInvalidParams
	}
	return s.repository.List(ctx, status)
}

func (s *vehicleService) ListActive(ctx context.Context) ([]*Vehicle, error) {
	return s.repository.List(ctx, StatusActive)
}

func (s *vehicleService) CountActive(ctx context.Context) (int64, error) {
	return s.repository.CountByStatus(ctx, StatusActive)
}

func (s *vehicleService) afterChange(ctx context.Context, adminID, vehicleID, change string) {
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
		ServiceName: models.ServiceAdminVehicles,
		Action:      models.ActionVehicleChanged,
		Metadata: map[string]string{
			"vehicle_id": vehicleID,
			"change":     change,
		},
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to publish vehicle activity")
	}
}

func validate(req *Request) error {
	if req == nil || req.Make == "" || req.Model == "" || NormalizeRegistration(req.RegistrationNumber) == "" {
		return models.ErrInvalidParams
	}
	return nil
}
