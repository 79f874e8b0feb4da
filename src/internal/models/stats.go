package models

// Stats is the admin dashboard summary.
type Stats struct {
	Employees      int64 `json:"employees"`
	Admins         int64 `json:"admins"`
	ClockedIn      int64 `json:"clockedIn"`
	ActiveVehicles int64 `json:"activeVehicles"`
	ActiveStations int64 `json:"activeStations"`
}
