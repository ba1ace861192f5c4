package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/i474232898/farm-weather/internal/weather"
)

const cityColumns = `id, city, state, temp_current, temp_min, temp_max, temp_unit, humidity,
  rain_probability, wind_speed, wind_direction, condition, forecast, alerts,
  farming_insight, source, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SaveCityWeather stores a bulletin, assigning an ID when it has none, and
// returns the stored value. The bulletin must already be normalized.
func (r *SQLiteRepository) SaveCityWeather(ctx context.Context, cw weather.CityWeather) (weather.CityWeather, error) {
	if cw.ID == "" {
		cw.ID = uuid.NewString()
	}
	forecast, err := json.Marshal(cw.Forecast)
	if err != nil {
		return weather.CityWeather{}, fmt.Errorf("encode forecast: %w", err)
	}
	alerts, err := json.Marshal(cw.Alerts)
	if err != nil {
		return weather.CityWeather{}, fmt.Errorf("encode alerts: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO city_weather (`+cityColumns+`, alert_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cw.ID,
		cw.City,
		nullableText(cw.State),
		nullable(cw.Temperature.Current),
		nullable(cw.Temperature.Min),
		nullable(cw.Temperature.Max),
		cw.Temperature.Unit,
		nullable(cw.Humidity),
		nullable(cw.RainProbability),
		nullable(cw.WindSpeed),
		nullableText(cw.WindDirection),
		nullableText(cw.Condition),
		string(forecast),
		string(alerts),
		nullableText(cw.FarmingInsight),
		cw.Source,
		formatTS(cw.CreatedAt),
		len(cw.Alerts),
	)
	if err != nil {
		return weather.CityWeather{}, fmt.Errorf("insert city weather: %w", err)
	}
	return cw, nil
}

// LatestCityWeather returns the newest bulletin whose city contains name,
// ignoring ASCII case.
func (r *SQLiteRepository) LatestCityWeather(ctx context.Context, name string) (weather.CityWeather, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cityColumns+` FROM city_weather
		 WHERE city LIKE ? ESCAPE '\' ORDER BY created_at DESC LIMIT 1`,
		"%"+likeEscaper.Replace(name)+"%",
	)
	if err != nil {
		return weather.CityWeather{}, fmt.Errorf("query city weather: %w", err)
	}
	found, err := scanCityWeather(rows)
	if err != nil {
		return weather.CityWeather{}, err
	}
	if len(found) == 0 {
		return weather.CityWeather{}, ErrNotFound
	}
	return found[0], nil
}

// RecentAlerts returns the alerts of the newest bulletins that carry any.
func (r *SQLiteRepository) RecentAlerts(ctx context.Context, limit int) ([]weather.CityAlerts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cityColumns+` FROM city_weather
		 WHERE alert_count > 0 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query city alerts: %w", err)
	}
	found, err := scanCityWeather(rows)
	if err != nil {
		return nil, err
	}

	out := make([]weather.CityAlerts, 0, len(found))
	for _, cw := range found {
		out = append(out, weather.CityAlerts{City: cw.City, Alerts: cw.Alerts})
	}
	return out, nil
}

func scanCityWeather(rows *sql.Rows) ([]weather.CityWeather, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close city weather rows", "error", err)
		}
	}()

	var out []weather.CityWeather
	for rows.Next() {
		var (
			cw                          weather.CityWeather
			state, direction, condition sql.NullString
			insight                     sql.NullString
			cur, lo, hi                 sql.NullFloat64
			hum, rain, wind             sql.NullFloat64
			forecast, alerts, created   string
		)
		if err := rows.Scan(&cw.ID, &cw.City, &state, &cur, &lo, &hi, &cw.Temperature.Unit,
			&hum, &rain, &wind, &direction, &condition, &forecast, &alerts,
			&insight, &cw.Source, &created); err != nil {
			return nil, fmt.Errorf("scan city weather: %w", err)
		}

		if err := json.Unmarshal([]byte(forecast), &cw.Forecast); err != nil {
			return nil, fmt.Errorf("decode forecast of %s: %w", cw.ID, err)
		}
		if err := json.Unmarshal([]byte(alerts), &cw.Alerts); err != nil {
			return nil, fmt.Errorf("decode alerts of %s: %w", cw.ID, err)
		}
		var err error
		if cw.CreatedAt, err = parseTS(created); err != nil {
			return nil, err
		}

		cw.State = state.String
		cw.WindDirection = direction.String
		cw.Condition = condition.String
		cw.FarmingInsight = insight.String
		cw.Temperature.Current = fromNull(cur)
		cw.Temperature.Min = fromNull(lo)
		cw.Temperature.Max = fromNull(hi)
		cw.Humidity = fromNull(hum)
		cw.RainProbability = fromNull(rain)
		cw.WindSpeed = fromNull(wind)
		out = append(out, cw)
	}
	return out, rows.Err()
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
