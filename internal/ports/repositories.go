package ports

import (
	"context"
	"time"

	"ride-tracker/internal/domain/trip"
)

// TrailPoint is one recorded driver position of a trip.
type TrailPoint struct {
	TripID     string
	DriverID   string
	Position   trip.Point
	Phase      trip.Phase
	RecordedAt time.Time
}

// TrailRepository persists the positions the rider saw the driver at.
type TrailRepository interface {
	Append(ctx context.Context, p TrailPoint) error
	ListForTrip(ctx context.Context, tripID string, limit int) ([]TrailPoint, error)
}

// ViewCache keeps the latest reconciled view per rider for other processes to read.
type ViewCache interface {
	Put(ctx context.Context, riderID string, view *trip.View) error
	Get(ctx context.Context, riderID string) (*trip.View, error)
	Delete(ctx context.Context, riderID string) error
}

// UnitOfWork runs fn inside a transaction carried by ctx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
