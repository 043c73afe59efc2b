package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the payload of bearer tokens issued by the identity
// provider.
type JWTClaims struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	Name        string `json:"name"`
	BadgeNumber string `json:"badge_number"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the actor passed to services.
func (c *JWTClaims) Principal() Principal {
	return Principal{ID: c.UserID, Role: c.Role, Name: c.Name, BadgeNumber: c.BadgeNumber}
}

// IssueTokenRequest describes a development token minted by the CLI.
type IssueTokenRequest struct {
	UserID      string        `validate:"required"`
	Role        Role          `validate:"required,role"`
	Name        string        `validate:"required"`
	BadgeNumber string        `validate:"required"`
	TTL         time.Duration `validate:"gte=0"`
}

// IssuedToken is a signed bearer token.
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
