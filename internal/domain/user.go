package domain

import (
	"context"
	"time"
)

// Role selects which profile shape a user owns
type Role string

const (
	RoleCompany     Role = "company"
	RoleProvider    Role = "provider"
	RoleCraftworker Role = "craftworker"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleProvider, RoleCraftworker:
		return true
	}
	return false
}

// User represents an account identity
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Caller is the authenticated identity a request acts as. It is resolved by
// the auth middleware and passed explicitly into every service call.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}
