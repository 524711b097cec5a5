package cli

import (
	"testing"
	"time"

	"ride-tracker/internal/domain/user"
	"ride-tracker/internal/general/jwt"

	"github.com/stretchr/testify/require"
)

func TestGenerateRiderToken(t *testing.T) {
	token, claims, err := GenerateRiderToken("s3cret", "rider-7", "passenger", time.Hour)
	require.NoError(t, err)
	require.Equal(t, "rider-7", claims.Subject)
	require.Equal(t, user.RolePassenger, claims.Role)

	id, err := jwt.ResolveIdentity("", "Bearer "+token, "s3cret")
	require.NoError(t, err)
	require.Equal(t, "rider-7", id.RiderID)
}

func TestGenerateRiderTokenRejectsDriver(t *testing.T) {
	_, _, err := GenerateRiderToken("s3cret", "d-1", "DRIVER", time.Hour)
	require.ErrorIs(t, err, jwt.ErrRoleForbidden)
}

func TestGenerateRiderTokenNeedsSecret(t *testing.T) {
	_, _, err := GenerateRiderToken(" ", "rider-7", "RIDER", time.Hour)
	require.Error(t, err)
}
