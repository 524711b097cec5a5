package redisstore

import (
	"context"
	"testing"
	"time"

	"ride-tracker/internal/domain/trip"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) (*ViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewViewCache(rdb, ttl), mr
}

func TestViewCache_PutGetDelete(t *testing.T) {
	cache, mr := newCache(t, time.Minute)
	ctx := context.Background()

	view := &trip.View{TripID: "t1", DriverID: "d1", TargetPosition: trip.Point{Lat: 1.5, Lng: 2.5}, RoutePhase: trip.PhaseToPickup}
	require.NoError(t, cache.Put(ctx, "r1", view))

	require.True(t, mr.Exists("ride-tracker:view:r1"))
	require.Equal(t, time.Minute, mr.TTL("ride-tracker:view:r1"))

	got, err := cache.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, view, got)

	require.NoError(t, cache.Delete(ctx, "r1"))
	_, err = cache.Get(ctx, "r1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestViewCache_TTLExpires(t *testing.T) {
	cache, mr := newCache(t, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "r1", &trip.View{TripID: "t1"}))
	mr.FastForward(11 * time.Second)

	_, err := cache.Get(ctx, "r1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestViewCache_PublishNilDeletes(t *testing.T) {
	cache, mr := newCache(t, 0)
	ctx := context.Background()

	require.NoError(t, cache.Publish(ctx, "r1", &trip.View{TripID: "t1"}))
	require.True(t, mr.Exists(Key("r1")))
	require.Zero(t, mr.TTL(Key("r1")))

	require.NoError(t, cache.Publish(ctx, "r1", nil))
	require.False(t, mr.Exists(Key("r1")))
}
