// Package store persists accepted spots to SQLite. It owns the age-based
// retention policy and the bulk distance/bearing recompute that runs when
// the user reference location changes; the pipeline only ever calls Store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"spotfeed/cty"
	"spotfeed/spot"
)

// Store wraps the SQLite database holding the spot history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// A database that fails the preflight integrity check is quarantined and
// replaced with a fresh one.
func Open(path string) (*Store, error) {
	if err := preflight(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// Keep operations serialized; modernc sqlite handles one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
create table if not exists spots (
	id integer primary key autoincrement,
	dx_call text not null,
	spotter text not null,
	frequency_khz real not null,
	band text not null,
	mode text not null,
	report integer,
	time text not null,
	source text not null,
	country text,
	grid text,
	latitude real,
	longitude real,
	distance_km integer,
	bearing_deg integer,
	comment text
);
create index if not exists idx_spots_time on spots(time);
create index if not exists idx_spots_dx_call on spots(dx_call);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// Store inserts one spot. The timestamp is serialized in ISO-8601 UTC so
// rows round-trip without locale surprises.
func (s *Store) Store(ctx context.Context, sp *spot.Spot) error {
	var report any
	if sp.HasReport {
		report = sp.Report
	}
	_, err := s.db.ExecContext(ctx, `
insert into spots (dx_call, spotter, frequency_khz, band, mode, report, time,
	source, country, grid, latitude, longitude, distance_km, bearing_deg, comment)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.DXCall, sp.DECall, sp.Frequency, sp.Band, sp.Mode, report,
		sp.Time.UTC().Format(time.RFC3339), string(sp.Source),
		nullString(sp.Country), nullString(sp.Grid),
		nullFloat(sp.Latitude), nullFloat(sp.Longitude),
		nullInt(sp.Distance), nullInt(sp.Bearing),
		nullString(sp.Comment))
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", sp.DXCall, err)
	}
	return nil
}

// Prune deletes spots older than maxAge and returns the number removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `delete from spots where time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RunRetention prunes on a fixed interval until ctx is cancelled. Triggered
// from main, not from the pipeline.
func (s *Store) RunRetention(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Prune(ctx, maxAge)
			if err != nil {
				log.Printf("Store: retention prune failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Store: retention removed %d spots older than %s", removed, maxAge)
			}
		}
	}
}

// RecomputeDistances rewrites distance/bearing for every located spot
// against a new reference location. Invoked by the owner of the location
// provider whenever the location changes.
func (s *Store) RecomputeDistances(ctx context.Context, refLat, refLon float64) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, latitude, longitude from spots where latitude is not null`)
	if err != nil {
		return 0, fmt.Errorf("store: recompute query: %w", err)
	}
	type update struct {
		id       int64
		distance int
		bearing  int
	}
	var updates []update
	for rows.Next() {
		var (
			id       int64
			lat, lon float64
		)
		if err := rows.Scan(&id, &lat, &lon); err != nil {
			rows.Close()
			return 0, fmt.Errorf("store: recompute scan: %w", err)
		}
		dist := cty.HaversineKm(refLat, refLon, lat, lon)
		bearing := cty.InitialBearing(refLat, refLon, lat, lon)
		updates = append(updates, update{
			id:       id,
			distance: int(math.Round(dist)),
			bearing:  int(math.Round(bearing)) % 360,
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("store: recompute iterate: %w", err)
	}
	rows.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: recompute begin: %w", err)
	}
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`update spots set distance_km = ?, bearing_deg = ? where id = ?`,
			u.distance, u.bearing, u.id); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("store: recompute update: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: recompute commit: %w", err)
	}
	return int64(len(updates)), nil
}

// Count returns the number of stored spots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `select count(*) from spots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
