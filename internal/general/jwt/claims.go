package jwt

import (
	"time"

	"ride-tracker/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines the session token payload the trip backend issues.
type Claims struct {
	Role user.Role `json:"role,omitempty"` // RIDER/PASSENGER for this client
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs end-user claims.
func NewUserClaims(userID string, role user.Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
