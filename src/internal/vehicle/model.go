package vehicle

import (
	"strings"
	"surihub-timeclock-svc/src/internal/clock"
	"time"
)

// Status constants
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

type Vehicle struct {
	ID                 string     `json:"id" bson:"_id"`
	Make               string     `json:"make" bson:"make"`
	Model              string     `json:"model" bson:"model"`
	Color              string     `json:"color,omitempty" bson:"color,omitempty"`
	RegistrationNumber string     `json:"registrationNumber" bson:"registration_number"`
	Status             string     `json:"status" bson:"status"`
	CreatedBy          string     `json:"createdBy" bson:"created_by"`
	CreatedAt          time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedBy          *string    `json:"updatedBy,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

type Request struct {
	Make               string `json:"make" binding:"required,max=50"`
	Model              string `json:"model" binding:"required,max=50"`
	Color              string `json:"color" binding:"max=30"`
	RegistrationNumber string `json:"registrationNumber" binding:"required,max=20"`
}

func (v *Vehicle) IsActive() bool {
	return v.Status == StatusActive
}

// Snapshot copies the fields a clock session keeps about the vehicle.
func (v *Vehicle) Snapshot() clock.VehicleSnapshot {
	return clock.VehicleSnapshot{
		ID:                 v.ID,
		Make:               v.Make,
		Model:              v.Model,
		Color:              v.Color,
		RegistrationNumber: v.RegistrationNumber,
	}
}

// NormalizeRegistration upper-cases a plate and collapses inner whitespace,
// so "kda 123a" and "KDA  123A" collide on the unique index.
func NormalizeRegistration(reg string) string {
	return strings.Join(strings.Fields(strings.ToUpper(reg)), " ")
}

func isValidStatus(status string) bool {
	return status == StatusActive || status == StatusRetired
}
