package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the access token payload issued by the external
// identity provider. This service validates but never issues tokens.
type JWTClaims struct {
	EnrollmentID string   `json:"enrollment_id"`
	Branch       string   `json:"branch"`
	Role         UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Privileged reports whether the token carries the privileged role.
func (c *JWTClaims) Privileged() bool {
	return c != nil && c.Role.Privileged()
}
