package postgres

import (
	"context"
	"testing"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/config"
	"ride-tracker/internal/ports"

	"github.com/stretchr/testify/require"
)

func TestTrailRepo_RequiresTransaction(t *testing.T) {
	repo := NewTrailRepo()

	err := repo.Append(context.Background(), ports.TrailPoint{TripID: "t1", Position: trip.Point{Lat: 1, Lng: 2}})
	require.ErrorIs(t, err, ErrNoTx)

	_, err = repo.ListForTrip(context.Background(), "t1", 10)
	require.ErrorIs(t, err, ErrNoTx)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "rider"
	cfg.Database.Password = "p@ss"
	cfg.Database.Name = "tracker"

	require.Equal(t, "postgres://rider:p%40ss@db:5432/tracker?sslmode=disable", DSN(cfg))
}
