package models

import "time"

type ActivityMessage struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionAdminCreated   = "admin_created"
	ActionVehicleChanged = "vehicle_changed"
	ActionStationChanged = "station_changed"
	ActionReportRequest  = "report_request"
)

// Service name constants
const (
	ServiceAuth          = "timeclock.handler.auth"
	ServiceAdminUsers    = "timeclock.handler.admin_users"
	ServiceAdminVehicles = "timeclock.handler.admin_vehicles"
	ServiceAdminStations = "timeclock.handler.admin_stations"
	ServiceAdminReports  = "timeclock.handler.admin_reports"
)
