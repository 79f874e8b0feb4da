package user

import (
	"strings"
	"time"
)

type User struct {
	ID           string     `json:"id" bson:"_id"`
	FirstName    string     `json:"firstName" bson:"first_name"`
	LastName     string     `json:"lastName" bson:"last_name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         string     `json:"role" bson:"role"`
	CreatedBy    *string    `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

type Profile struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ClientMeta describes the device a login came from.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *Profile  `json:"user"`
}

// GetAllUsersRequest represents request for getting all users
type GetAllUsersRequest struct {
	Page   int    `json:"page" form:"page"`
	Limit  int    `json:"limit" form:"limit"`
	Role   string `json:"role" form:"role"`
	Search string `json:"search" form:"search"`
}

// GetAllUsersResponse represents response for getting all users
type GetAllUsersResponse struct {
	Users      []*Profile `json:"users"`
	TotalCount int64      `json:"totalCount"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// ToProfile converts User to Profile
func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		CreatedBy:   u.CreatedBy,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin checks if user is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}
