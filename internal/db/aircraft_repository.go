package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// AircraftRepository keeps the latest known state of every aircraft seen by
// the collector.
type AircraftRepository struct {
	db *DB
}

// NewAircraftRepository creates a new aircraft repository.
func NewAircraftRepository(db *DB) *AircraftRepository {
	return &AircraftRepository{db: db}
}

// Aircraft is the latest stored state of one aircraft.
type Aircraft struct {
	ICAO24        string
	Callsign      *string
	OriginCountry string
	Region        string
	Longitude     *float64
	Latitude      *float64
	BaroAltitude  *float64
	Velocity      *float64
	TrueTrack     *float64
	OnGround      bool
	FirstSeen     time.Time
	LastSeen      time.Time
	SightingCount int
}

const upsertAircraftSQL = `INSERT INTO aircraft (
		icao24, callsign, origin_country, region, longitude, latitude,
		baro_altitude, velocity, true_track, on_ground,
		first_seen, last_seen, sighting_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11, 1)
	ON CONFLICT (icao24) DO UPDATE SET
		callsign = COALESCE(EXCLUDED.callsign, aircraft.callsign),
		origin_country = EXCLUDED.origin_country,
		region = EXCLUDED.region,
		longitude = EXCLUDED.longitude,
		latitude = EXCLUDED.latitude,
		baro_altitude = EXCLUDED.baro_altitude,
		velocity = EXCLUDED.velocity,
		true_track = EXCLUDED.true_track,
		on_ground = EXCLUDED.on_ground,
		last_seen = EXCLUDED.last_seen,
		sighting_count = aircraft.sighting_count + 1`

// UpsertStates records every vector of a snapshot as the latest state of its
// aircraft. A callsign that was not received keeps the previously stored one.
func (r *AircraftRepository) UpsertStates(ctx context.Context, region string, states *opensky.States, seenAt time.Time) error {
	if states.Len() == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertAircraftSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare aircraft upsert: %w", err)
	}
	defer stmt.Close()

	for _, sv := range states.States {
		_, err := stmt.ExecContext(ctx,
			sv.ICAO24, nullString(sv.Callsign), sv.OriginCountry, region,
			nullFloat(sv.Longitude), nullFloat(sv.Latitude), nullFloat(sv.BaroAltitude),
			nullFloat(sv.Velocity), nullFloat(sv.TrueTrack), sv.OnGround,
			seenAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert aircraft %s: %w", sv.ICAO24, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit aircraft: %w", err)
	}
	return nil
}

// GetAircraft returns the stored state of one aircraft, or nil if unknown.
func (r *AircraftRepository) GetAircraft(ctx context.Context, icao24 string) (*Aircraft, error) {
	rows, err := r.db.QueryContext(ctx, selectAircraftSQL+` WHERE icao24 = $1`, icao24)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	list, err := scanAircraft(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// SeenSince lists aircraft last seen at or after a time, most recent first.
// An empty region matches every region.
func (r *AircraftRepository) SeenSince(ctx context.Context, region string, since time.Time) ([]Aircraft, error) {
	rows, err := r.db.QueryContext(ctx,
		selectAircraftSQL+`
		 WHERE last_seen >= $1 AND ($2 = '' OR region = $2)
		 ORDER BY last_seen DESC, icao24`,
		since.UTC(), region,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	return scanAircraft(rows)
}

const selectAircraftSQL = `SELECT icao24, callsign, origin_country, region, longitude, latitude,
		baro_altitude, velocity, true_track, on_ground, first_seen, last_seen, sighting_count
	 FROM aircraft`

func scanAircraft(rows *sql.Rows) ([]Aircraft, error) {
	out := []Aircraft{}
	for rows.Next() {
		var (
			a                   Aircraft
			callsign            sql.NullString
			lon, lat, baro      sql.NullFloat64
			velocity, track     sql.NullFloat64
			firstSeen, lastSeen time.Time
		)
		err := rows.Scan(&a.ICAO24, &callsign, &a.OriginCountry, &a.Region,
			&lon, &lat, &baro, &velocity, &track, &a.OnGround,
			&firstSeen, &lastSeen, &a.SightingCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		a.Callsign = stringPtr(callsign)
		a.Longitude = floatPtr(lon)
		a.Latitude = floatPtr(lat)
		a.BaroAltitude = floatPtr(baro)
		a.Velocity = floatPtr(velocity)
		a.TrueTrack = floatPtr(track)
		a.FirstSeen = firstSeen.UTC()
		a.LastSeen = lastSeen.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aircraft: %w", err)
	}
	return out, nil
}
