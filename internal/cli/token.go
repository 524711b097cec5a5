package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ride-tracker/internal/domain/user"
	"ride-tracker/internal/general/jwt"
)

// GenerateRiderToken mints a JWT for a rider, for local development against a backend
// that shares secret. Do not call it from production code paths.
func GenerateRiderToken(secret, userID, roleStr string, ttl time.Duration) (string, jwt.Claims, error) {
	if strings.TrimSpace(secret) == "" {
		return "", jwt.Claims{}, errors.New("secret is required")
	}

	// parse and validate the role
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}
	if !role.IsRider() {
		return "", jwt.Claims{}, fmt.Errorf("role %q: %w", roleStr, jwt.ErrRoleForbidden)
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	// set up a new JWT manager
	mgr := jwt.NewManager(secret, ttl)

	// generate the JWT token given the user ID and its role
	token, claims, err := mgr.IssueUserToken(userID, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
