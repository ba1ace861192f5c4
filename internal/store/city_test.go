package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/weather"
)

func bulletin(city string, created time.Time, alerts ...weather.Alert) weather.CityWeather {
	return weather.CityWeather{
		City:        city,
		Temperature: weather.CityTemperature{Current: common.Float(31), Max: common.Float(36)},
		Humidity:    common.Float(58),
		Condition:   "sunny",
		Forecast: []weather.CityForecastDay{
			{Date: created, TempMin: common.Float(23), TempMax: common.Float(35), Condition: "sunny"},
		},
		Alerts: alerts,
	}.Normalize(created)
}

func TestSaveAndLatestCityWeather(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))
	base := time.Date(2025, 7, 14, 6, 0, 0, 0, time.UTC)

	first, err := repo.SaveCityWeather(ctx, bulletin("Vadodara", base))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := repo.SaveCityWeather(ctx, bulletin("Vadodara", base.Add(time.Hour)))
	require.NoError(t, err)

	got, err := repo.LatestCityWeather(ctx, "vadod")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "Vadodara", got.City)
	assert.Equal(t, "°C", got.Temperature.Unit)
	assert.Equal(t, "manual", got.Source)
	assert.Equal(t, base.Add(time.Hour), got.CreatedAt)
	require.NotNil(t, got.Temperature.Current)
	assert.Equal(t, 31.0, *got.Temperature.Current)
	assert.Nil(t, got.Temperature.Min)
	require.Len(t, got.Forecast, 1)
	assert.Equal(t, base, got.Forecast[0].Date)
	assert.NotNil(t, got.Alerts)
	assert.Empty(t, got.Alerts)
}

func TestLatestCityWeatherNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.SaveCityWeather(ctx, bulletin("Surat", time.Now()))
	require.NoError(t, err)

	_, err = repo.LatestCityWeather(ctx, "Pune")
	assert.ErrorIs(t, err, ErrNotFound)

	// Wildcards in the name are matched literally.
	_, err = repo.LatestCityWeather(ctx, "%")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentAlerts(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))
	base := time.Date(2025, 7, 14, 6, 0, 0, 0, time.UTC)

	heat := weather.Alert{Type: "heat", Message: "Irrigate in the evening.", Severity: "high"}
	rain := weather.Alert{Type: "rain", Message: "Delay spraying.", Severity: "medium"}

	for _, cw := range []weather.CityWeather{
		bulletin("Ahmedabad", base, heat),
		bulletin("Rajkot", base.Add(time.Hour)),
		bulletin("Mumbai", base.Add(2*time.Hour), rain, heat),
	} {
		_, err := repo.SaveCityWeather(ctx, cw)
		require.NoError(t, err)
	}

	got, err := repo.RecentAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Mumbai", got[0].City)
	assert.Equal(t, []weather.Alert{rain, heat}, got[0].Alerts)
	assert.Equal(t, "Ahmedabad", got[1].City)

	got, err = repo.RecentAlerts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
