package sinks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name string
	err  error

	mu    sync.Mutex
	views []*trip.View
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, _ string, view *trip.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
	return s.err
}

func (s *recordingSink) seen() []*trip.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*trip.View(nil), s.views...)
}

func TestFanout_DeliversInOrderToAllSinks(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b", err: errors.New("down")}
	f := NewFanout(logger.Nop(), 8, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = f.Run(ctx)
		close(done)
	}()

	require.True(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1"}))
	require.True(t, f.Offer(ctx, "r1", nil))

	require.Eventually(t, func() bool { return len(a.seen()) == 2 && len(b.seen()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "t1", a.seen()[0].TripID)
	require.Nil(t, a.seen()[1])

	cancel()
	<-done
}

func TestFanout_DropsWhenFull(t *testing.T) {
	f := NewFanout(logger.Nop(), 1, &recordingSink{name: "a"})
	ctx := context.Background()

	require.True(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1"}))
	require.False(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1"}))
}

func TestFanout_ClearIsNeverDropped(t *testing.T) {
	a := &recordingSink{name: "a"}
	f := NewFanout(logger.Nop(), 2, a)
	ctx := context.Background()

	require.True(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1"}))
	require.True(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1", DriverID: "d1"}))
	require.False(t, f.Offer(ctx, "r1", &trip.View{TripID: "t1", DriverID: "d2"}))

	// the clear replaces the queued views of the rider
	require.True(t, f.Offer(ctx, "r1", nil))
	require.Equal(t, 1, f.Queued())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = f.Run(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(a.seen()) == 1 }, time.Second, 5*time.Millisecond)
	require.Nil(t, a.seen()[0])

	cancel()
	<-done
}

func TestFanout_ClearOnFullQueueKeepsOtherRiders(t *testing.T) {
	f := NewFanout(logger.Nop(), 2, &recordingSink{name: "a"})
	ctx := context.Background()

	require.True(t, f.Offer(ctx, "r2", &trip.View{TripID: "t2"}))
	require.True(t, f.Offer(ctx, "r2", &trip.View{TripID: "t2", DriverID: "d2"}))
	require.True(t, f.Offer(ctx, "r1", nil))
	require.Equal(t, 3, f.Queued())
}

func TestFanout_NoSinksAcceptsEverything(t *testing.T) {
	f := NewFanout(logger.Nop(), 1)
	for i := 0; i < 3; i++ {
		require.True(t, f.Offer(context.Background(), "r1", nil))
	}
}

type fakeUoW struct{ calls int }

func (u *fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	return fn(ctx)
}

type fakeTrail struct{ points []ports.TrailPoint }

func (r *fakeTrail) Append(_ context.Context, p ports.TrailPoint) error {
	r.points = append(r.points, p)
	return nil
}

func (r *fakeTrail) ListForTrip(context.Context, string, int) ([]ports.TrailPoint, error) {
	return r.points, nil
}

func TestTrailSink_RecordsDistinctLivePositions(t *testing.T) {
	uow, repo := &fakeUoW{}, &fakeTrail{}
	sink := NewTrailSink(uow, repo)
	ctx := context.Background()

	here := trip.Point{Lat: 1, Lng: 1}
	there := trip.Point{Lat: 1.001, Lng: 1}

	require.NoError(t, sink.Publish(ctx, "r1", &trip.View{TripID: "t1", TargetPosition: here}))
	require.NoError(t, sink.Publish(ctx, "r1", &trip.View{TripID: "t1", TargetPosition: here, Live: true, RoutePhase: trip.PhaseToPickup}))
	require.NoError(t, sink.Publish(ctx, "r1", &trip.View{TripID: "t1", TargetPosition: here, Live: true}))
	require.NoError(t, sink.Publish(ctx, "r1", &trip.View{TripID: "t1", TargetPosition: there, Live: true, RoutePhase: trip.PhaseToDropoff}))
	require.NoError(t, sink.Publish(ctx, "r1", nil))
	require.NoError(t, sink.Publish(ctx, "r1", &trip.View{TripID: "t1", TargetPosition: there, Live: true}))

	require.Len(t, repo.points, 3)
	require.Equal(t, 3, uow.calls)
	require.Equal(t, trip.PhaseToPickup, repo.points[0].Phase)
	require.Equal(t, there, repo.points[1].Position)
	require.False(t, repo.points[0].RecordedAt.IsZero())
}
