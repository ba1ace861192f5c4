package weather

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Alert is a farming advisory attached to a city bulletin.
type Alert struct {
	Type     string `json:"type" validate:"required,max=32"`
	Message  string `json:"message" validate:"required,max=500"`
	Severity string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

// CityTemperature is the day's temperature summary.
type CityTemperature struct {
	Current *float64 `json:"current"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Unit    string   `json:"unit"`
}

type CityForecastDay struct {
	Date            time.Time `json:"date"`
	TempMin         *float64  `json:"tempMin"`
	TempMax         *float64  `json:"tempMax"`
	Condition       string    `json:"condition"`
	RainProbability *float64  `json:"rainProbability" validate:"omitempty,gte=0,lte=100"`
}

// CityWeather is a recorded weather bulletin for a named city.
type CityWeather struct {
	ID              string            `json:"id,omitempty"`
	City            string            `json:"city" validate:"required,max=100"`
	State           string            `json:"state,omitempty" validate:"max=100"`
	Temperature     CityTemperature   `json:"temperature"`
	Humidity        *float64          `json:"humidity" validate:"omitempty,gte=0,lte=100"`
	RainProbability *float64          `json:"rainProbability" validate:"omitempty,gte=0,lte=100"`
	WindSpeed       *float64          `json:"windSpeed" validate:"omitempty,gte=0"`
	WindDirection   string            `json:"windDirection,omitempty"`
	Condition       string            `json:"condition,omitempty" validate:"omitempty,oneof=sunny cloudy rainy stormy foggy partly-cloudy windy"`
	Forecast        []CityForecastDay `json:"forecast" validate:"dive"`
	Alerts          []Alert           `json:"alerts" validate:"dive"`
	FarmingInsight  string            `json:"farmingInsight,omitempty"`
	Source          string            `json:"source"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// CityAlerts groups the alerts of one bulletin.
type CityAlerts struct {
	City   string  `json:"city"`
	Alerts []Alert `json:"alerts"`
}

const (
	defaultTempUnit   = "°C"
	defaultCitySource = "manual"
)

// Normalize trims names and fills defaults; createdAt is set when zero.
func (c CityWeather) Normalize(now time.Time) CityWeather {
	c.City = strings.TrimSpace(c.City)
	c.State = strings.TrimSpace(c.State)
	if c.Temperature.Unit == "" {
		c.Temperature.Unit = defaultTempUnit
	}
	if c.Source == "" {
		c.Source = defaultCitySource
	}
	if c.Forecast == nil {
		c.Forecast = []CityForecastDay{}
	}
	if c.Alerts == nil {
		c.Alerts = []Alert{}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c
}

func (c CityWeather) Validate() error {
	return validate.Struct(c)
}
