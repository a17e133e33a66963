package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
)

const hazardColumns = `id::text, latitude, longitude, hazard_type, severity, source, observed_at,
		description, temperature, wind_speed, precipitation, visibility`

const hazardInsertArity = 12

// SaveHazards inserts all records in a single statement. Records without an ID
// get a fresh UUID and a zero timestamp becomes the current time.
func (r *Repository) SaveHazards(ctx context.Context, records []hazard.Record) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO hazards (id, latitude, longitude, hazard_type, severity, source,
		observed_at, description, temperature, wind_speed, precipitation, visibility) VALUES `)

	args := make([]any, 0, len(records)*hazardInsertArity)
	for i, h := range records {
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		if h.Timestamp.IsZero() {
			h.Timestamp = time.Now().UTC()
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 1; j <= hazardInsertArity; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*hazardInsertArity+j)
		}
		sb.WriteString(")")

		args = append(args,
			h.ID, h.Latitude, h.Longitude, string(h.Type), h.Severity, h.Source,
			h.Timestamp, h.Description, h.Temperature, h.WindSpeed, h.Precipitation, h.Visibility,
		)
	}

	if _, err := r.q.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting %d hazards: %w", len(records), unavailable(err))
	}
	return nil
}

// FindHazardsWithinBounds returns hazards inside the box observed after since.
func (r *Repository) FindHazardsWithinBounds(ctx context.Context, b geo.Bounds, since time.Time) ([]hazard.Record, error) {
	q := `SELECT ` + hazardColumns + `
		FROM hazards
		WHERE latitude BETWEEN $1 AND $2
		AND longitude BETWEEN $3 AND $4
		AND observed_at > $5`

	return r.queryHazards(ctx, q, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, since)
}

// FindHistoricalHazards returns hazards inside the box observed within
// [start, end], newest first.
func (r *Repository) FindHistoricalHazards(ctx context.Context, b geo.Bounds, start, end time.Time) ([]hazard.Record, error) {
	q := `SELECT ` + hazardColumns + `
		FROM hazards
		WHERE latitude BETWEEN $1 AND $2
		AND longitude BETWEEN $3 AND $4
		AND observed_at BETWEEN $5 AND $6
		ORDER BY observed_at DESC`

	return r.queryHazards(ctx, q, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, start, end)
}

// DeleteHazardsOlderThan removes hazards observed before cutoff and reports
// how many rows were deleted.
func (r *Repository) DeleteHazardsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM hazards WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting hazards before %s: %w", cutoff.Format(time.RFC3339), unavailable(err))
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) queryHazards(ctx context.Context, q string, args ...any) ([]hazard.Record, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hazards: %w", unavailable(err))
	}
	defer rows.Close()

	results := []hazard.Record{}
	for rows.Next() {
		h, err := scanHazard(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hazard rows: %w", unavailable(err))
	}

	return results, nil
}

func scanHazard(row pgx.Row) (hazard.Record, error) {
	var h hazard.Record
	var kind string

	if err := row.Scan(
		&h.ID,
		&h.Latitude,
		&h.Longitude,
		&kind,
		&h.Severity,
		&h.Source,
		&h.Timestamp,
		&h.Description,
		&h.Temperature,
		&h.WindSpeed,
		&h.Precipitation,
		&h.Visibility,
	); err != nil {
		return hazard.Record{}, fmt.Errorf("scanning hazard row: %w", unavailable(err))
	}

	t, err := hazard.ParseType(kind)
	if err != nil {
		return hazard.Record{}, fmt.Errorf("decoding hazard %s: %w", h.ID, err)
	}
	h.Type = t
	return h, nil
}
