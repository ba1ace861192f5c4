package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/farm-weather/internal/station"
)

var (
	// ErrNotFound is returned when no persisted record matches the query.
	ErrNotFound = errors.New("record not found")
)

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const readingColumns = `id, station_id, ts, received_at, air_temperature, humidity,
  soil_temperature, soil_moisture, wind_speed, wind_direction, rainfall, battery_level, simulated`

// SQLiteRepository keeps the durable history of station readings.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveReading inserts r; saving the same ID twice is a no-op.
func (r *SQLiteRepository) SaveReading(ctx context.Context, rd station.Reading) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO station_readings (`+readingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rd.ID,
		rd.StationID,
		formatTS(rd.Timestamp),
		formatTS(rd.ReceivedAt),
		nullable(rd.AirTemperature),
		nullable(rd.Humidity),
		nullable(rd.SoilTemperature),
		nullable(rd.SoilMoisture),
		nullable(rd.WindSpeed),
		nullableString(rd.WindDirection),
		rd.Rainfall,
		nullable(rd.BatteryLevel),
		rd.Simulated,
	)
	if err != nil {
		return fmt.Errorf("insert station reading: %w", err)
	}
	return nil
}

// LatestReading returns the newest persisted reading for stationID.
func (r *SQLiteRepository) LatestReading(ctx context.Context, stationID string) (station.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM station_readings
		 WHERE station_id = ? ORDER BY ts DESC, received_at DESC LIMIT 1`,
		stationID,
	)
	if err != nil {
		return station.Reading{}, fmt.Errorf("query latest reading: %w", err)
	}
	readings, err := scanReadings(rows)
	if err != nil {
		return station.Reading{}, err
	}
	if len(readings) == 0 {
		return station.Reading{}, ErrNotFound
	}
	return readings[0], nil
}

// History returns up to limit readings for stationID taken at or after since,
// oldest first.
func (r *SQLiteRepository) History(ctx context.Context, stationID string, since time.Time, limit int) ([]station.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM station_readings
		 WHERE station_id = ? AND ts >= ? ORDER BY ts ASC LIMIT ?`,
		stationID, formatTS(since), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query reading history: %w", err)
	}
	return scanReadings(rows)
}

// PruneBefore deletes readings received before cutoff and reports how many were removed.
func (r *SQLiteRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM station_readings WHERE received_at < ?`, formatTS(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune station readings: %w", err)
	}
	return res.RowsAffected()
}

func scanReadings(rows *sql.Rows) ([]station.Reading, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close station reading rows", "error", err)
		}
	}()

	out := []station.Reading{}
	for rows.Next() {
		var (
			rd                     station.Reading
			ts, receivedAt         string
			air, hum, soilT, soilM sql.NullFloat64
			wind, battery          sql.NullFloat64
			direction              sql.NullString
		)
		if err := rows.Scan(&rd.ID, &rd.StationID, &ts, &receivedAt, &air, &hum,
			&soilT, &soilM, &wind, &direction, &rd.Rainfall, &battery, &rd.Simulated); err != nil {
			return nil, fmt.Errorf("scan station reading: %w", err)
		}

		var err error
		if rd.Timestamp, err = parseTS(ts); err != nil {
			return nil, err
		}
		if rd.ReceivedAt, err = parseTS(receivedAt); err != nil {
			return nil, err
		}
		rd.AirTemperature = fromNull(air)
		rd.Humidity = fromNull(hum)
		rd.SoilTemperature = fromNull(soilT)
		rd.SoilMoisture = fromNull(soilM)
		rd.WindSpeed = fromNull(wind)
		rd.BatteryLevel = fromNull(battery)
		if direction.Valid {
			d := direction.String
			rd.WindDirection = &d
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

func nullable(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
