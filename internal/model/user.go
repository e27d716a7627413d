package model

import (
	"fmt"
	"time"
)

// User represents an authenticated account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	DepartmentID int64      `json:"department_id,omitempty"`
	VendorID     string     `json:"vendor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleStudent     = "student"
	RoleVendor      = "vendor"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCoordinator, RoleStudent, RoleVendor:
		return true
	}
	return false
}

// RoleIn checks if role is one of the allowed roles. Unknown roles never match.
func RoleIn(role string, allowed ...string) bool {
	if !ValidRole(role) {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// MinPasswordLength is the shortest password accepted for new accounts.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
