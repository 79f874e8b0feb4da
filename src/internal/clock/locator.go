package clock

import (
	"context"
	"errors"
	"fmt"
	"surihub-timeclock-svc/src/internal/models"
)

// Locator obtains the device position at the moment of a clock transition.
type Locator interface {
	CurrentPosition(ctx context.Context) (Location, error)
}

// LocatorFunc adapts a plain function to Locator.
type LocatorFunc func(ctx context.Context) (Location, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (Location, error) {
	return f(ctx)
}

const (
	LocationStatusOK               = "ok"
	LocationStatusPermissionDenied = "permission_denied"
	LocationStatusUnavailable      = "unavailable"
)

// ReportedLocation is the fix a client device attached to its request.
type ReportedLocation struct {
	Status    string   `json:"status"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func (r *ReportedLocation) CurrentPosition(ctx context.Context) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, fmt.Errorf("%w: %v", models.ErrLocationUnavailable, err)
	}
	if r == nil {
		return Location{}, models.ErrLocationUnavailable
	}

	switch r.Status {
	case LocationStatusPermissionDenied:
		return Location{}, models.ErrLocationPermissionDenied
	case LocationStatusUnavailable:
		return Location{}, models.ErrLocationUnavailable
	case "", LocationStatusOK:
	default:
		return Location{}, fmt.Errorf("%w: unknown status %q", models.ErrLocationDevice, r.Status)
	}

	if r.Latitude == nil || r.Longitude == nil {
		return Location{}, models.ErrLocationUnavailable
	}

	loc := Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if r.Accuracy != nil {
		loc.Accuracy = *r.Accuracy
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate rejects coordinates no device can report.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", models.ErrLocationDevice, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", models.ErrLocationDevice, l.Longitude)
	}
	if l.Accuracy < 0 {
		return fmt.Errorf("%w: negative accuracy", models.ErrLocationDevice)
	}
	return nil
}

func resolveLocation(ctx context.Context, locator Locator) (Location, error) {
	if locator == nil {
		return Location{}, models.ErrLocationUnavailable
	}

	loc, err := locator.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, models.ErrLocationUnavailable) {
			return Location{}, err
		}
		return Location{}, fmt.Errorf("%w: %v", models.ErrLocationDevice, err)
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}
