package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// AccessTokenPayload captures the identity-provider data carried in a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Name   string
}

// AccessTokenClaims represents the typed JWT the campus identity provider
// issues to clients. This service only verifies; it never mints end-user
// tokens outside of tests.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	Name   string         `json:"name,omitempty"`
	jwt.RegisteredClaims
}
