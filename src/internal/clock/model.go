package clock

import "time"

// Location is a device position fix. Accuracy is in meters.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Accuracy  float64 `json:"accuracy" bson:"accuracy"`
}

// VehicleSnapshot is the vehicle as it was at clock-in.
type VehicleSnapshot struct {
	ID                 string `json:"id" bson:"id"`
	Make               string `json:"make" bson:"make"`
	Model              string `json:"model" bson:"model"`
	Color              string `json:"color,omitempty" bson:"color,omitempty"`
	RegistrationNumber string `json:"registrationNumber" bson:"registration_number"`
}

// StationSnapshot is the station as it was at clock-in.
type StationSnapshot struct {
	ID      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Address string `json:"address" bson:"address"`
}

// ClockSession is open while ClockOutTime is nil. TotalTime is in seconds.
type ClockSession struct {
	ID               string           `json:"id" bson:"session_id"`
	UserID           string           `json:"userId" bson:"user_id"`
	UserEmail        string           `json:"userEmail" bson:"user_email"`
	ClockInTime      time.Time        `json:"clockInTime" bson:"clock_in_time"`
	ClockInLocation  Location         `json:"clockInLocation" bson:"clock_in_location"`
	Vehicle          *VehicleSnapshot `json:"vehicle,omitempty" bson:"vehicle,omitempty"`
	Station          *StationSnapshot `json:"station,omitempty" bson:"station,omitempty"`
	Notes            string           `json:"notes" bson:"notes"`
	ClockOutTime     *time.Time       `json:"clockOutTime,omitempty" bson:"clock_out_time,omitempty"`
	ClockOutLocation *Location        `json:"clockOutLocation,omitempty" bson:"clock_out_location,omitempty"`
	TotalTime        *int64           `json:"totalTime,omitempty" bson:"total_time,omitempty"`
	ArchiveKey       string           `json:"archiveKey,omitempty" bson:"archive_key,omitempty"`
}

// IsOpen checks if the session has not been clocked out yet.
func (s *ClockSession) IsOpen() bool {
	return s != nil && s.ClockOutTime == nil
}

// Clone returns a deep copy so callers never share snapshots or pointers.
func (s *ClockSession) Clone() *ClockSession {
	if s == nil {
		return nil
	}

	c := *s
	if s.Vehicle != nil {
		v := *s.Vehicle
		c.Vehicle = &v
	}
	if s.Station != nil {
		st := *s.Station
		c.Station = &st
	}
	if s.ClockOutTime != nil {
		t := *s.ClockOutTime
		c.ClockOutTime = &t
	}
	if s.ClockOutLocation != nil {
		l := *s.ClockOutLocation
		c.ClockOutLocation = &l
	}
	if s.TotalTime != nil {
		total := *s.TotalTime
		c.TotalTime = &total
	}
	return &c
}

// ArchiveFilter selects archived sessions. Zero values mean "any".
type ArchiveFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int64
}

// Matches reports whether an archived session passes the filter, ignoring Limit.
func (f ArchiveFilter) Matches(s *ClockSession) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.From != nil && s.ClockInTime.Before(*f.From) {
		return false
	}
	if f.To != nil && s.ClockInTime.After(*f.To) {
		return false
	}
	return true
}
