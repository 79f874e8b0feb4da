package clock

import (
	"context"
	"fmt"
	"surihub-timeclock-svc/src/internal/models"
)

// ReferenceData lists the vehicles and stations an employee may pick.
type ReferenceData interface {
	ListActiveVehicles(ctx context.Context) ([]VehicleSnapshot, error)
	ListActiveStations(ctx context.Context) ([]StationSnapshot, error)
}

// Catalog turns the ids a client selected into clock-in snapshots.
type Catalog struct {
	ref ReferenceData
}

func NewCatalog(ref ReferenceData) *Catalog {
	return &Catalog{ref: ref}
}

// Resolve looks up both selections among the active entries. An empty,
// unknown or retired id is reported as a missing selection.
func (c *Catalog) Resolve(ctx context.Context, vehicleID, stationID string) (*VehicleSnapshot, *StationSnapshot, error) {
	if vehicleID == "" {
		return nil, nil, models.ErrVehicleRequired
	}
	if stationID == "" {
		return nil, nil, models.ErrStationRequired
	}

	vehicles, err := c.ref.ListActiveVehicles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	var vehicle *VehicleSnapshot
	for i := range vehicles {
		if vehicles[i].ID == vehicleID {
			v := vehicles[i]
			vehicle = &v
			break
		}
	}
	if vehicle == nil {
		return nil, nil, models.ErrVehicleRequired
	}

	stations, err := c.ref.ListActiveStations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrStoreRead, err)
	}
	var station *StationSnapshot
	for i := range stations {
		if stations[i].ID == stationID {
			s := stations[i]
			station = &s
			break
		}
	}
	if station == nil {
		return nil, nil, models.ErrStationRequired
	}

	return vehicle, station, nil
}
