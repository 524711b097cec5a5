package cli

import (
	"testing"

	"ride-tracker/internal/domain/trip"

	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(" 43.2389, 76.8897 ")
	require.NoError(t, err)
	require.Equal(t, trip.Point{Lat: 43.2389, Lng: 76.8897}, p)
}

func TestParsePointRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "43.2", "north,76.8", "43.2,east"} {
		_, err := ParsePoint(in)
		require.ErrorIs(t, err, ErrBadCoordinates, in)
	}
}

func TestParsePointRejectsOutOfRange(t *testing.T) {
	_, err := ParsePoint("91,10")
	require.Error(t, err)
}

func TestParsePlaceWithName(t *testing.T) {
	p, err := ParsePlace("43.2389,76.8897@Almaty Airport")
	require.NoError(t, err)
	require.Equal(t, "Almaty Airport", p.Location)
	require.InDelta(t, 43.2389, p.Lat, 1e-9)
	require.InDelta(t, 76.8897, p.Lng, 1e-9)
}
