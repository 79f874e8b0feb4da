package session

import "time"

// Session is an authenticated login. The access token carries its SessionID.
type Session struct {
	SessionID    string     `json:"sessionId" bson:"session_id"`
	UserID       string     `json:"userId" bson:"user_id"`
	Email        string     `json:"email" bson:"email"`
	Role         string     `json:"role" bson:"role"`
	IPAddress    string     `json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	LastActiveAt time.Time  `json:"lastActiveAt" bson:"last_active_at"`
	ExpiresAt    time.Time  `json:"expiresAt" bson:"expires_at"`
	LogoutAt     *time.Time `json:"logoutAt,omitempty" bson:"logout_at,omitempty"`
}

// IsValid checks if the session can still authenticate requests at now.
func (s *Session) IsValid(now time.Time) bool {
	return s.IsActive && s.LogoutAt == nil && now.Before(s.ExpiresAt)
}
