package models

import (
	"errors"
	"fmt"
)

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInactive = errors.New("session inactive")
	ErrSessionCreating = errors.New("error creating session")
	ErrSessionUpdating = errors.New("error updating session")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrDatabaseDelete     = errors.New("database delete error")
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateRecord    = errors.New("duplicate record")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidParams      = errors.New("invalid parameters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("admin privileges required")
)

var (
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrRegistrationTaken = errors.New("registration number already in use")
	ErrStationNotFound   = errors.New("station not found")
)

// Clock lifecycle failures. Variants wrap their parent so callers can match
// either the family or the exact cause.
var (
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrVehicleRequired     = fmt.Errorf("%w: vehicle is required", ErrPreconditionFailed)
	ErrStationRequired     = fmt.Errorf("%w: station is required", ErrPreconditionFailed)
	ErrNoOpenSession       = fmt.Errorf("%w: no open session", ErrPreconditionFailed)
	ErrSessionAlreadyOpen  = fmt.Errorf("%w: a session is already open", ErrPreconditionFailed)
	ErrSessionArchived     = errors.New("session already archived")
	ErrArchiveConflict     = errors.New("archive key already holds a different session")
	ErrLocationUnavailable = errors.New("location unavailable")

	ErrLocationPermissionDenied = fmt.Errorf("%w: permission denied", ErrLocationUnavailable)
	ErrLocationDevice           = fmt.Errorf("%w: device error", ErrLocationUnavailable)

	ErrStoreWrite = errors.New("store write error")
	ErrStoreRead  = errors.New("store read error")
)

// IsRetryable reports whether the caller may re-issue the same request
// unchanged. Precondition failures need different input first.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrLocationUnavailable),
		errors.Is(err, ErrStoreWrite),
		errors.Is(err, ErrStoreRead):
		return true
	default:
		return false
	}
}
