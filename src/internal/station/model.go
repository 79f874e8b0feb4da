package station

import (
	"surihub-timeclock-svc/src/internal/clock"
	"time"
)

type Station struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Address   string     `json:"address" bson:"address"`
	IsActive  bool       `json:"isActive" bson:"is_active"`
	CreatedBy string     `json:"createdBy" bson:"created_by"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedBy *string    `json:"updatedBy,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

type Request struct {
	Name    string `json:"name" binding:"required,max=100"`
	Address string `json:"address" binding:"required,max=200"`
}

// Filter values accepted by List.
const (
	FilterAll      = ""
	FilterActive   = "active"
	FilterInactive = "inactive"
)

// SystemUser is recorded as creator of stations inserted by SeedDefaults.
const SystemUser = "system"

// DefaultStations are seeded into an empty catalog.
var DefaultStations = []Request{
	{Name: "Somerset Westview Nairobi", Address: "Nairobi, Kenya"},
	{Name: "Villa Rosa Kempinski", Address: "Nairobi, Kenya"},
	{Name: "Sankara Nairobi", Address: "Nairobi, Kenya"},
}

// Snapshot copies the fields a clock session keeps about the station.
func (s *Station) Snapshot() clock.StationSnapshot {
	return clock.StationSnapshot{
		ID:      s.ID,
		Name:    s.Name,
		Address: s.Address,
	}
}

func activeFilter(filter string) (*bool, bool) {
	switch filter {
	case FilterAll:
		return nil, true
	case FilterActive:
		active := true
		return &active, true
	case FilterInactive:
		active := false
		return &active, true
	default:
		return nil, false
	}
}
