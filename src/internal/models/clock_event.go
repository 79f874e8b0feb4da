package models

import "time"

// ClockEvent is published after every successful clock transition.
type ClockEvent struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	SessionID    string    `json:"session_id"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	Registration string    `json:"registration,omitempty"`
	StationName  string    `json:"station_name,omitempty"`
	TotalTime    int64     `json:"total_time,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

const (
	ClockEventIn  = "clock_in"
	ClockEventOut = "clock_out"
)
