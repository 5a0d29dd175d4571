// Package service declares the ports the marketplace use cases call out through:
// credentials, media storage, ranking cache, share codes and domain events.
package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PasswordHasher turns account passwords into stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Check reports whether password matches hash. A malformed hash never matches.
	Check(password, hash string) bool
}

// Claims is the payload of a beatmarket access token. Roles carries entity.Role names.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Roles  []string  `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the bearer tokens accepted under /api/v1.
// Tokens are stateless; there is no refresh or revocation.
type TokenService interface {
	GenerateAccessToken(userID uuid.UUID, roles []string) (string, error)
	// ValidateToken returns the claims of a token signed by this service that has not expired.
	ValidateToken(tokenString string) (*Claims, error)
}
