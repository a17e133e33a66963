package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
)

const routeColumns = `id::text, requester_id, from_lat, from_lon, to_lat, to_lon, path,
		risk_score, distance_meters, duration_seconds, hotspots, created_at`

// SaveRoute inserts a route record. Path and hotspots are stored as JSONB.
// An empty requester ID is stored as NULL.
func (r *Repository) SaveRoute(ctx context.Context, rec route.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Hotspots == nil {
		rec.Hotspots = []hazard.Hotspot{}
	}

	pathJSON, err := json.Marshal(rec.Path)
	if err != nil {
		return fmt.Errorf("marshaling route path: %w", err)
	}
	hotspotsJSON, err := json.Marshal(rec.Hotspots)
	if err != nil {
		return fmt.Errorf("marshaling route hotspots: %w", err)
	}

	const q = `
		INSERT INTO routes (id, requester_id, from_lat, from_lon, to_lat, to_lon, path,
			risk_score, distance_meters, duration_seconds, hotspots, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if _, err := r.q.Exec(ctx, q,
		rec.ID,
		nullable(rec.RequesterID),
		rec.From.Lat, rec.From.Lon,
		rec.To.Lat, rec.To.Lon,
		pathJSON,
		rec.RiskScore,
		rec.DistanceMeters,
		rec.DurationSeconds,
		hotspotsJSON,
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting route %s: %w", rec.ID, unavailable(err))
	}

	return nil
}

// FindRecentRoute returns the newest route for the exact fingerprint created
// at or after since. Returns nil, nil when there is none. An empty requester
// ID matches any requester.
func (r *Repository) FindRecentRoute(ctx context.Context, fp route.Fingerprint, since time.Time) (*route.Record, error) {
	const q = `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE ($1 = '' OR requester_id = $1)
		AND from_lat = $2 AND from_lon = $3
		AND to_lat = $4 AND to_lon = $5
		AND created_at >= $6
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := scanRoute(r.q.QueryRow(ctx, q,
		fp.RequesterID, fp.From.Lat, fp.From.Lon, fp.To.Lat, fp.To.Lon, since,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying recent route: %w", err)
	}
	return &rec, nil
}

// FindRoutesForRequester returns the requester's routes created at or after
// since, newest first.
func (r *Repository) FindRoutesForRequester(ctx context.Context, requesterID string, since time.Time) ([]route.Record, error) {
	const q = `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE requester_id = $1
		AND created_at >= $2
		ORDER BY created_at DESC
	`
	return r.queryRoutes(ctx, q, requesterID, since)
}

// FindAllRoutes returns every route created at or after since, newest first.
func (r *Repository) FindAllRoutes(ctx context.Context, since time.Time) ([]route.Record, error) {
	const q = `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`
	return r.queryRoutes(ctx, q, since)
}

// DeleteRoutesOlderThan removes routes created before cutoff. A non-empty
// requesterID limits the deletion to that requester.
func (r *Repository) DeleteRoutesOlderThan(ctx context.Context, requesterID string, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM routes WHERE ($1 = '' OR requester_id = $1) AND created_at < $2`

	tag, err := r.q.Exec(ctx, q, requesterID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting routes before %s: %w", cutoff.Format(time.RFC3339), unavailable(err))
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) queryRoutes(ctx context.Context, q string, args ...any) ([]route.Record, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", unavailable(err))
	}
	defer rows.Close()

	results := []route.Record{}
	for rows.Next() {
		rec, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating route rows: %w", unavailable(err))
	}

	return results, nil
}

// scanRoute decodes one row. pgx.ErrNoRows is returned unwrapped so callers
// can detect a miss; other scan failures are marked unavailable.
func scanRoute(row pgx.Row) (route.Record, error) {
	var rec route.Record
	var requesterID *string
	var pathJSON, hotspotsJSON []byte

	if err := row.Scan(
		&rec.ID,
		&requesterID,
		&rec.From.Lat, &rec.From.Lon,
		&rec.To.Lat, &rec.To.Lon,
		&pathJSON,
		&rec.RiskScore,
		&rec.DistanceMeters,
		&rec.DurationSeconds,
		&hotspotsJSON,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return route.Record{}, err
		}
		return route.Record{}, fmt.Errorf("scanning route row: %w", unavailable(err))
	}

	if requesterID != nil {
		rec.RequesterID = *requesterID
	}

	rec.Path = []geo.Point{}
	if err := json.Unmarshal(pathJSON, &rec.Path); err != nil {
		return route.Record{}, fmt.Errorf("unmarshaling path of route %s: %w", rec.ID, err)
	}
	rec.Hotspots = []hazard.Hotspot{}
	if len(hotspotsJSON) > 0 {
		if err := json.Unmarshal(hotspotsJSON, &rec.Hotspots); err != nil {
			return route.Record{}, fmt.Errorf("unmarshaling hotspots of route %s: %w", rec.ID, err)
		}
	}

	return rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
