// Package domain provides the workshop domain model for Pitlane.
//
// Types here carry no persistence or transport concerns. Money is always
// shopspring/decimal; never float64.
package domain

import "time"

// Role is the identity role supplied by the auth collaborator.
type Role string

const (
	RoleUser     Role = "user"
	RoleMechanic Role = "mechanic"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

// User is a workshop account. Customers own vehicles and receive invoices.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsMechanic reports whether the actor holds the mechanic role.
func (a Actor) IsMechanic() bool { return a.Role == RoleMechanic }
