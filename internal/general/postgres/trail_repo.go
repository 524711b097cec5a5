package postgres

import (
	"context"
	"fmt"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const trailSchema = `
CREATE TABLE IF NOT EXISTS rider_trail (
	id          BIGSERIAL PRIMARY KEY,
	trip_id     TEXT             NOT NULL,
	driver_id   TEXT             NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude   DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	phase       TEXT             NOT NULL,
	recorded_at TIMESTAMPTZ      NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_rider_trail_trip ON rider_trail (trip_id, recorded_at DESC);
`

// EnsureTrailSchema creates the trail table when missing.
func EnsureTrailSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, trailSchema); err != nil {
		return fmt.Errorf("postgres: ensure rider_trail: %w", err)
	}
	return nil
}

// TrailRepo persists driver positions shown to the rider using pgx and plain SQL.
type TrailRepo struct{}

// NewTrailRepo constructs a new TrailRepo.
func NewTrailRepo() ports.TrailRepository {
	return &TrailRepo{}
}

// Append inserts a single trail row.
func (repo *TrailRepo) Append(ctx context.Context, p ports.TrailPoint) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if err := p.Position.Validate(); err != nil {
		return err
	}

	var recordedAt any
	if !p.RecordedAt.IsZero() {
		recordedAt = p.RecordedAt.UTC()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rider_trail (trip_id, driver_id, latitude, longitude, phase, recorded_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`,
		p.TripID,
		p.DriverID,
		p.Position.Lat,
		p.Position.Lng,
		string(p.Phase),
		recordedAt,
	)
	return err
}

// ListForTrip returns up to limit most recent rows of the trip, newest first.
func (repo *TrailRepo) ListForTrip(ctx context.Context, tripID string, limit int) ([]ports.TrailPoint, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}

	rows, err := tx.Query(ctx, `
		SELECT trip_id, driver_id, latitude, longitude, phase, recorded_at
		FROM rider_trail
		WHERE trip_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`, tripID, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ports.TrailPoint, error) {
		var (
			p     ports.TrailPoint
			phase string
		)
		err := row.Scan(&p.TripID, &p.DriverID, &p.Position.Lat, &p.Position.Lng, &phase, &p.RecordedAt)
		p.Phase = trip.Phase(phase)
		return p, err
	})
}
