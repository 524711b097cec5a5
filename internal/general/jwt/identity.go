package jwt

import (
	"fmt"
	"strings"
	"time"
)

// Identity is the authenticated rider the tracker acts for.
type Identity struct {
	RiderID string
	Token   string // raw bearer token, may be empty when a session cookie is used
}

// Present reports whether there is a rider to track.
func (id Identity) Present() bool {
	return strings.TrimSpace(id.RiderID) != ""
}

// ResolveIdentity derives the rider identity from configuration.
// A token wins over an explicit rider id; with a secret the token is verified.
func ResolveIdentity(riderID, token, secret string) (Identity, error) {
	token = StripBearer(token)
	if token == "" {
		if strings.TrimSpace(riderID) == "" {
			return Identity{}, ErrEmptyToken
		}
		return Identity{RiderID: strings.TrimSpace(riderID)}, nil
	}

	var (
		claims *Claims
		err    error
	)
	if strings.TrimSpace(secret) != "" {
		_, claims, err = NewManager(secret, time.Hour).ParseAndValidate(token)
	} else {
		claims, err = ParseUnverified(token)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("resolve identity: %w", err)
	}

	if claims.Role != "" && !claims.Role.IsRider() {
		return Identity{}, ErrRoleForbidden
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrNoSubject
	}
	if riderID != "" && riderID != claims.Subject {
		return Identity{}, fmt.Errorf("resolve identity: rider id %q does not match token subject", riderID)
	}

	return Identity{RiderID: claims.Subject, Token: token}, nil
}
