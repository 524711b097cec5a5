package sinks

import (
	"context"
	"sync"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/ports"
)

// TrailSink records every distinct live driver position into the trail repository.
type TrailSink struct {
	uow  ports.UnitOfWork
	repo ports.TrailRepository
	now  func() time.Time

	mu       sync.Mutex
	lastTrip string
	lastPos  trip.Point
}

func NewTrailSink(uow ports.UnitOfWork, repo ports.TrailRepository) *TrailSink {
	return &TrailSink{uow: uow, repo: repo, now: time.Now}
}

func (s *TrailSink) Name() string { return "postgres" }

func (s *TrailSink) Publish(ctx context.Context, _ string, view *trip.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if view == nil {
		s.lastTrip = ""
		return nil
	}
	if !view.Live {
		return nil
	}
	if view.TripID == s.lastTrip && view.TargetPosition == s.lastPos {
		return nil
	}

	point := ports.TrailPoint{
		TripID:     view.TripID,
		DriverID:   view.DriverID,
		Position:   view.TargetPosition,
		Phase:      view.RoutePhase,
		RecordedAt: s.now(),
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.Append(ctx, point)
	})
	if err != nil {
		return err
	}
	s.lastTrip, s.lastPos = view.TripID, view.TargetPosition
	return nil
}
