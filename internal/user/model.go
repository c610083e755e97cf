package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidRole        = errors.New("invalid user role")
)

// Role is the principal role attached to every authenticated request.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleSupportAgent Role = "support_agent"
	RoleAdmin        Role = "admin"
)

// IsValid returns true if the role is a recognized user role.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSupportAgent, RoleAdmin:
		return true
	}
	return false
}

// IsStaff returns true for roles allowed to manage bookings on behalf of customers.
func (r Role) IsStaff() bool {
	return r == RoleSupportAgent || r == RoleAdmin
}

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         Role
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// Filter defines filter options for listing users.
type Filter struct {
	Email       string
	DisplayName string
	Role        string
	IsActive    *bool // Use pointer to distinguish between false and nil (not set)

	Page     int
	PageSize int
	Sort     string // simple string for now, e.g., "created_at desc"
}
