// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is an account of the marketplace. Every user can both sell and buy beats.
type User struct {
	ID           uuid.UUID       // The Global Unique Identifier (GUID) for the user.
	Username     string          // Unique login and display name.
	PasswordHash string          // bcrypt hash, never rendered.
	PhotoRef     string          // Media store key of the profile photo, empty when unset.
	Balance      decimal.Decimal // Non-negative in-platform balance with cent precision.
	Bio          string          // Free text description shown on the public profile.
	Role         Role            // RoleUser or RoleAdmin.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the principal acting as this user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role}
}
