package catalog

import (
	"context"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/clock"
	"surihub-timeclock-svc/src/internal/station"
	"surihub-timeclock-svc/src/internal/vehicle"

	"github.com/sirupsen/logrus"
)

type VehicleLister interface {
	ListActive(ctx context.Context) ([]*vehicle.Vehicle, error)
}

type StationLister interface {
	ListActive(ctx context.Context) ([]*station.Station, error)
}

// Service serves the active vehicle and station lists from redis, falling
// back to the repositories on a miss. Admin writes invalidate the cache.
type Service struct {
	vehicles     VehicleLister
	stations     StationLister
	cacheService cache.Service
}

var _ clock.ReferenceData = (*Service)(nil)

func NewCatalogService(vehicles VehicleLister, stations StationLister, cacheService cache.Service) *Service {
	return &Service{
		vehicles:     vehicles,
		stations:     stations,
		cacheService: cacheService,
	}
}

func (s *Service) ListActiveVehicles(ctx context.Context) ([]clock.VehicleSnapshot, error) {
	var snapshots []clock.VehicleSnapshot
	if s.fromCache(ctx, cache.CatalogVehicles, &snapshots) {
		return snapshots, nil
	}

	vehicles, err := s.vehicles.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	snapshots = make([]clock.VehicleSnapshot, len(vehicles))
	for i, v := range vehicles {
		snapshots[i] = v.Snapshot()
	}
	s.toCache(ctx, cache.CatalogVehicles, snapshots)
	return snapshots, nil
}

func (s *Service) ListActiveStations(ctx context.Context) ([]clock.StationSnapshot, error) {
	var snapshots []clock.StationSnapshot
	if s.fromCache(ctx, cache.CatalogStations, &snapshots) {
		return snapshots, nil
	}

	stations, err := s.stations.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	snapshots = make([]clock.StationSnapshot, len(stations))
	for i, st := range stations {
		snapshots[i] = st.Snapshot()
	}
	s.toCache(ctx, cache.CatalogStations, snapshots)
	return snapshots, nil
}

func (s *Service) fromCache(ctx context.Context, kind string, dest any) bool {
	found, err := s.cacheService.GetCatalog(ctx, kind, dest)
	if err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("Catalog cache unavailable, reading from database")
		return false
	}
	return found
}

func (s *Service) toCache(ctx context.Context, kind string, value any) {
	if err := s.cacheService.SaveCatalog(ctx, kind, value); err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("Failed to cache catalog")
	}
}
