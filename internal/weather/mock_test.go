package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerateStructure(t *testing.T) {
	now := time.Date(2025, 7, 14, 15, 4, 5, 0, time.UTC)
	g := NewMockGeneratorWith(func() float64 { return 0.5 }, func() time.Time { return now })

	rep := g.Generate(19.07, 72.87, ModeManual)

	assert.Equal(t, SourceMock, rep.Source)
	assert.Equal(t, Location{Latitude: 19.07, Longitude: 72.87, Mode: ModeManual}, rep.Location)

	require.Len(t, rep.Forecast, ForecastDays)
	assert.Equal(t, "2025-07-14", rep.Forecast[0].Date)
	assert.Equal(t, "2025-07-20", rep.Forecast[6].Date)

	require.Len(t, rep.Hourly, HourlyPoints)
	assert.Equal(t, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), rep.Hourly[0].Time)
	assert.Equal(t, time.Date(2025, 7, 14, 23, 0, 0, 0, time.UTC), rep.Hourly[23].Time)
	for i := 1; i < len(rep.Hourly); i++ {
		assert.True(t, rep.Hourly[i].Time.After(rep.Hourly[i-1].Time))
	}
	assert.Equal(t, 24.0, *rep.Hourly[0].Temp)
	assert.Equal(t, 20.0, *rep.Hourly[0].SoilTemp)

	assert.Equal(t, 31.0, *rep.Current.Temp)
	assert.Equal(t, 67.0, *rep.Current.Humidity)
}

func TestMockGenerateBounds(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.75, 0.999999} {
		g := NewMockGeneratorWith(func() float64 { return v }, time.Now)
		rep := g.Generate(0, 0, ModeAuto)

		c := rep.Current
		assert.InDelta(t, 31, *c.Temp, 3.0001)
		assert.InDelta(t, 67.5, *c.Humidity, 12.5001)
		assert.InDelta(t, 7.5, *c.Wind, 7.5001)
		assert.InDelta(t, 2.5, *c.Rainfall, 2.5001)
		assert.InDelta(t, 25, *c.SoilTemp, 3.0001)
		assert.InDelta(t, 42.5, *c.SoilMoisture, 12.5001)

		for _, d := range rep.Forecast {
			assert.InDelta(t, 34, *d.Max, 4.0001)
			assert.InDelta(t, 23, *d.Min, 3.0001)
			assert.InDelta(t, 35, *d.RainProbability, 35.0001)
		}
		assert.Equal(t, ModeAuto, rep.Location.Mode)
	}
}
