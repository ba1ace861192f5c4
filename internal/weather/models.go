package weather

import (
	"time"
)

// Source identifies which tier produced a Report.
type Source string

const (
	SourceStation   Source = "station"
	SourceOpenMeteo Source = "open-meteo"
	SourceMock      Source = "mock"
)

// Mode tells whether the location was chosen by the server or the caller.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// Location echoes the coordinates a Report was resolved for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Mode      Mode    `json:"mode"`
}

// Current holds the present conditions. Every field is always serialized;
// nil means the source did not report it.
type Current struct {
	Temp         *float64 `json:"temp"`
	Humidity     *float64 `json:"humidity"`
	Wind         *float64 `json:"wind"`
	Rainfall     *float64 `json:"rainfall"`
	SoilTemp     *float64 `json:"soil_temp"`
	SoilMoisture *float64 `json:"soil_moisture"`
}

// DailyForecast is one calendar day; Date is formatted as YYYY-MM-DD.
type DailyForecast struct {
	Date            string   `json:"date"`
	Max             *float64 `json:"max"`
	Min             *float64 `json:"min"`
	RainProbability *float64 `json:"rain_probability"`
}

// HourlyPoint is one hourly sample at an absolute instant.
type HourlyPoint struct {
	Time     time.Time `json:"time"`
	Temp     *float64  `json:"temp"`
	SoilTemp *float64  `json:"soil_temp"`
}

// Report is the canonical weather view returned regardless of source.
// Forecast holds 0 or 7 days; Hourly holds 0 to 24 chronological points.
type Report struct {
	Current  Current         `json:"current"`
	Forecast []DailyForecast `json:"forecast"`
	Hourly   []HourlyPoint   `json:"hourly"`
	Location Location        `json:"location"`
	Source   Source          `json:"source"`
}

const (
	ForecastDays = 7
	HourlyPoints = 24
	dateLayout   = "2006-01-02"
)
