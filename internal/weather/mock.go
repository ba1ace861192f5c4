package weather

import (
	"math"
	"math/rand"
	"time"

	"github.com/i474232898/farm-weather/internal/common"
)

// MockGenerator produces structurally complete synthetic reports. It performs
// no I/O and cannot fail.
type MockGenerator struct {
	random func() float64
	now    func() time.Time
}

// NewMockGenerator returns a generator backed by math/rand and the wall clock.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{random: rand.Float64, now: time.Now}
}

// NewMockGeneratorWith lets callers pin the random source and clock.
func NewMockGeneratorWith(random func() float64, now func() time.Time) *MockGenerator {
	return &MockGenerator{random: random, now: now}
}

// Generate builds a mock report for the given location. Mode is echoed as given.
func (g *MockGenerator) Generate(lat, lon float64, mode Mode) Report {
	now := g.now()

	forecast := make([]DailyForecast, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		forecast = append(forecast, DailyForecast{
			Date:            now.AddDate(0, 0, i).Format(dateLayout),
			Max:             common.Float(g.between(30, 38)),
			Min:             common.Float(g.between(20, 26)),
			RainProbability: common.Float(math.Floor(g.random() * 70)),
		})
	}

	// Diurnal curve over today's hours.
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	hourly := make([]HourlyPoint, 0, HourlyPoints)
	for h := 0; h < HourlyPoints; h++ {
		fh := float64(h)
		hourly = append(hourly, HourlyPoint{
			Time:     day.Add(time.Duration(h) * time.Hour),
			Temp:     common.Float(common.Round1(24 + math.Sin(fh/4)*6)),
			SoilTemp: common.Float(common.Round1(20 + math.Sin(fh/5)*4)),
		})
	}

	return Report{
		Current: Current{
			Temp:         common.Float(g.between(28, 34)),
			Humidity:     common.Float(math.Floor(55 + g.random()*25)),
			Wind:         common.Float(g.between(0, 15)),
			Rainfall:     common.Float(g.between(0, 5)),
			SoilTemp:     common.Float(g.between(22, 28)),
			SoilMoisture: common.Float(g.between(30, 55)),
		},
		Forecast: forecast,
		Hourly:   hourly,
		Location: Location{Latitude: lat, Longitude: lon, Mode: mode},
		Source:   SourceMock,
	}
}

var mockConditions = []string{"sunny", "partly-cloudy", "cloudy", "rainy", "sunny", "partly-cloudy", "sunny"}

// CityWeather builds the fallback bulletin served when a city has no record.
func (g *MockGenerator) CityWeather(city string) CityWeather {
	now := g.now().UTC()

	forecast := make([]CityForecastDay, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		forecast = append(forecast, CityForecastDay{
			Date:            now.AddDate(0, 0, i),
			TempMin:         common.Float(22 + math.Floor(g.random()*5)),
			TempMax:         common.Float(32 + math.Floor(g.random()*8)),
			Condition:       mockConditions[i],
			RainProbability: common.Float(math.Floor(g.random() * 80)),
		})
	}

	return CityWeather{
		City: city,
		Temperature: CityTemperature{
			Current: common.Float(32),
			Min:     common.Float(24),
			Max:     common.Float(38),
			Unit:    defaultTempUnit,
		},
		Humidity:        common.Float(65),
		RainProbability: common.Float(40),
		WindSpeed:       common.Float(12),
		WindDirection:   "NW",
		Condition:       "partly-cloudy",
		Forecast:        forecast,
		Alerts: []Alert{
			{Type: "rain", Message: "Rain expected in 2 hours. Delay pesticide spraying.", Severity: "medium"},
		},
		FarmingInsight: "Moderate humidity levels. Good time for transplanting seedlings.",
		Source:         string(SourceMock),
		CreatedAt:      now,
	}
}

// Alerts is the fallback list served when no bulletin carries alerts.
func (g *MockGenerator) Alerts() []CityAlerts {
	return []CityAlerts{
		{City: "Ahmedabad", Alerts: []Alert{
			{Type: "heat", Message: "Heat wave expected. Increase irrigation frequency.", Severity: "high"},
		}},
		{City: "Mumbai", Alerts: []Alert{
			{Type: "rain", Message: "Heavy rainfall expected. Protect harvested crops.", Severity: "critical"},
		}},
	}
}

func (g *MockGenerator) between(lo, hi float64) float64 {
	return common.Round1(lo + g.random()*(hi-lo))
}
