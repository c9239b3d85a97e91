package models

import (
	"time"
)

// Role is the single role a user holds inside an organization.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleWorkman  Role = "workman"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleWorkman, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account scoped to one organization
type User struct {
	ID             int64     `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	Email          string    `json:"email" db:"email"`
	FullName       string    `json:"full_name" db:"full_name"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Acting returns the identity the user acts with on a request.
func (u *User) Acting() ActingUser {
	return ActingUser{ID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID}
}

// ActingUser is the authenticated caller passed into every core operation.
type ActingUser struct {
	ID             int64 `json:"id"`
	Role           Role  `json:"role"`
	OrganizationID int64 `json:"organization_id"`
}
