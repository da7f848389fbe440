package domain

import "time"

// User represents an account known to the local identity provider.
type User struct {
	ID           string
	Email        string // Unique email address
	Username     string // Unique username
	PasswordHash string // Bcrypt hashed password (not returned in API)
	TenantID     string // Tenant scope all of this user's items live under
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByUsername(username string) (*User, error)
	Update(user *User) error
	Delete(id string) error
	ListByTenant(tenantID string) ([]*User, error)
}
