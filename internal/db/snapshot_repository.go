package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// SnapshotRepository stores and reads state vector snapshots.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// StoredVector is a state vector read back from storage with the snapshot
// it belongs to.
type StoredVector struct {
	SnapshotID   int64
	Region       string
	SnapshotTime time.Time
	opensky.StateVector
}

const insertVectorSQL = `INSERT INTO state_vectors (
		snapshot_id, ordinal, icao24, callsign, origin_country, time_position, last_contact,
		longitude, latitude, baro_altitude, on_ground, velocity, true_track,
		vertical_rate, sensors, geo_altitude, squawk, spi, position_source
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (snapshot_id, icao24) DO NOTHING`

// SaveSnapshot stores one polled snapshot and all of its vectors in a single
// transaction and returns the snapshot ID.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, runID uuid.UUID, region string, states *opensky.States, fetchedAt time.Time) (int64, error) {
	if states == nil {
		return 0, fmt.Errorf("save snapshot: no states")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO state_snapshots (run_id, region, snapshot_time, fetched_at, vector_count)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		runID, region, states.Time.UTC(), fetchedAt.UTC(), len(states.States),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if len(states.States) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertVectorSQL)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare vector insert: %w", err)
		}
		defer stmt.Close()

		stored := int64(0)
		for i, sv := range states.States {
			res, err := stmt.ExecContext(ctx, vectorArgs(id, i, sv)...)
			if err != nil {
				return 0, fmt.Errorf("failed to insert vector %s: %w", sv.ICAO24, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("failed to count vector insert: %w", err)
			}
			stored += n
		}

		// Duplicate icao24 rows are dropped by the conflict clause
		if stored != int64(len(states.States)) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE state_snapshots SET vector_count = $1 WHERE id = $2`,
				stored, id,
			); err != nil {
				return 0, fmt.Errorf("failed to update vector count: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

func vectorArgs(snapshotID int64, ordinal int, sv opensky.StateVector) []interface{} {
	var sensors pq.Int64Array
	if sv.Sensors != nil {
		sensors = make(pq.Int64Array, len(sv.Sensors))
		for i, s := range sv.Sensors {
			sensors[i] = int64(s)
		}
	}

	return []interface{}{
		snapshotID,
		ordinal,
		sv.ICAO24,
		nullString(sv.Callsign),
		sv.OriginCountry,
		nullTime(sv.TimePosition),
		sv.LastContactTime(),
		nullFloat(sv.Longitude),
		nullFloat(sv.Latitude),
		nullFloat(sv.BaroAltitude),
		sv.OnGround,
		nullFloat(sv.Velocity),
		nullFloat(sv.TrueTrack),
		nullFloat(sv.VerticalRate),
		sensors,
		nullFloat(sv.GeoAltitude),
		nullString(sv.Squawk),
		sv.SPI,
		int(sv.PositionSource),
	}
}

const selectVectorColumns = `s.id, s.region, s.snapshot_time,
		v.icao24, v.callsign, v.origin_country, v.time_position, v.last_contact,
		v.longitude, v.latitude, v.baro_altitude, v.on_ground, v.velocity, v.true_track,
		v.vertical_rate, v.sensors, v.geo_altitude, v.squawk, v.spi, v.position_source`

// VectorsForAircraft returns the stored states of one aircraft since a time,
// newest first. A limit of zero or less means 100.
func (r *SnapshotRepository) VectorsForAircraft(ctx context.Context, icao24 string, since time.Time, limit int) ([]StoredVector, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectVectorColumns+`
		 FROM state_vectors v
		 JOIN state_snapshots s ON s.id = v.snapshot_id
		 WHERE v.icao24 = $1 AND s.snapshot_time >= $2
		 ORDER BY s.snapshot_time DESC
		 LIMIT $3`,
		icao24, since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	return scanVectors(rows)
}

// LatestSnapshot returns the most recent stored snapshot of a region in the
// order the vectors were received, or nil if the region has none.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context, region string) (*opensky.States, error) {
	var (
		id int64
		ts time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, snapshot_time FROM state_snapshots
		 WHERE region = $1
		 ORDER BY snapshot_time DESC
		 LIMIT 1`,
		region,
	).Scan(&id, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectVectorColumns+`
		 FROM state_vectors v
		 JOIN state_snapshots s ON s.id = v.snapshot_id
		 WHERE v.snapshot_id = $1
		 ORDER BY v.ordinal`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot vectors: %w", err)
	}
	defer rows.Close()

	stored, err := scanVectors(rows)
	if err != nil {
		return nil, err
	}

	states := &opensky.States{Time: ts.UTC(), States: make([]opensky.StateVector, 0, len(stored))}
	for _, v := range stored {
		states.States = append(states.States, v.StateVector)
	}
	return states, nil
}

func scanVectors(rows *sql.Rows) ([]StoredVector, error) {
	out := []StoredVector{}
	for rows.Next() {
		var (
			v            StoredVector
			callsign     sql.NullString
			timePosition sql.NullTime
			lastContact  time.Time
			lon, lat     sql.NullFloat64
			baro, vel    sql.NullFloat64
			track, vrate sql.NullFloat64
			geo          sql.NullFloat64
			squawk       sql.NullString
			sensors      pq.Int64Array
			source       int
		)
		err := rows.Scan(
			&v.SnapshotID, &v.Region, &v.SnapshotTime,
			&v.ICAO24, &callsign, &v.OriginCountry, &timePosition, &lastContact,
			&lon, &lat, &baro, &v.OnGround, &vel, &track,
			&vrate, &sensors, &geo, &squawk, &v.SPI, &source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}

		v.SnapshotTime = v.SnapshotTime.UTC()
		v.Callsign = stringPtr(callsign)
		v.TimePosition = timePtr(timePosition)
		v.LastContact = lastContact.Unix()
		v.Longitude = floatPtr(lon)
		v.Latitude = floatPtr(lat)
		v.BaroAltitude = floatPtr(baro)
		v.Velocity = floatPtr(vel)
		v.TrueTrack = floatPtr(track)
		v.VerticalRate = floatPtr(vrate)
		v.GeoAltitude = floatPtr(geo)
		v.Squawk = stringPtr(squawk)
		v.PositionSource = opensky.PositionSource(source)
		if sensors != nil {
			v.Sensors = make([]int, len(sensors))
			for i, s := range sensors {
				v.Sensors[i] = int(s)
			}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vectors: %w", err)
	}
	return out, nil
}

// Null conversions between client pointers and database/sql types

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time.UTC()
	return &v
}
