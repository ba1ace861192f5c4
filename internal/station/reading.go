package station

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/farm-weather/internal/common"
)

// DefaultStationID is used when a payload does not identify its station.
const DefaultStationID = "default-station"

// CompassPoints are the accepted wind directions.
var CompassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Field names a canonical station measurement.
type Field string

const (
	FieldStationID       Field = "station_id"
	FieldAirTemperature  Field = "air_temperature"
	FieldHumidity        Field = "humidity"
	FieldSoilTemperature Field = "soil_temperature"
	FieldSoilMoisture    Field = "soil_moisture"
	FieldWindSpeed       Field = "wind_speed"
	FieldWindDirection   Field = "wind_direction"
	FieldRainfall        Field = "rainfall"
	FieldBatteryLevel    Field = "battery_level"
	FieldTimestamp       Field = "timestamp"
)

// FieldAliases lists, per canonical field, the payload keys accepted for it in
// priority order. The first key present with a non-null value is used.
var FieldAliases = map[Field][]string{
	FieldStationID:       {"station_id", "stationId"},
	FieldAirTemperature:  {"air_temperature", "temperature"},
	FieldHumidity:        {"humidity"},
	FieldSoilTemperature: {"soil_temperature", "soilTemperature"},
	FieldSoilMoisture:    {"soil_moisture", "soilMoisture"},
	FieldWindSpeed:       {"wind_speed", "windSpeed"},
	FieldWindDirection:   {"wind_direction", "windDirection"},
	FieldRainfall:        {"rainfall"},
	FieldBatteryLevel:    {"battery_level", "batteryLevel"},
	FieldTimestamp:       {"timestamp"},
}

// Reading is the normalized station snapshot held in the latest-reading slot.
// Nil measurements were absent or not numeric in the payload.
type Reading struct {
	ID              string    `json:"id"`
	StationID       string    `json:"station_id"`
	AirTemperature  *float64  `json:"air_temperature"`
	Humidity        *float64  `json:"humidity"`
	SoilTemperature *float64  `json:"soil_temperature"`
	SoilMoisture    *float64  `json:"soil_moisture"`
	WindSpeed       *float64  `json:"wind_speed"`
	WindDirection   *string   `json:"wind_direction"`
	Rainfall        float64   `json:"rainfall"` // 0 when not reported
	BatteryLevel    *float64  `json:"battery_level"`
	Timestamp       time.Time `json:"timestamp"`
	ReceivedAt      time.Time `json:"receivedAt"`
	Simulated       bool      `json:"simulated,omitempty"`
}

// Normalize maps a raw payload using either naming convention onto a Reading.
// ID and ReceivedAt are left for the caller to assign; now is used when the
// payload carries no usable timestamp.
func Normalize(raw map[string]any, now time.Time) Reading {
	r := Reading{
		StationID:       stringField(raw, FieldStationID),
		AirTemperature:  numberField(raw, FieldAirTemperature),
		Humidity:        numberField(raw, FieldHumidity),
		SoilTemperature: numberField(raw, FieldSoilTemperature),
		SoilMoisture:    numberField(raw, FieldSoilMoisture),
		WindSpeed:       numberField(raw, FieldWindSpeed),
		BatteryLevel:    numberField(raw, FieldBatteryLevel),
		Timestamp:       timeField(raw, FieldTimestamp, now),
	}

	if r.StationID == "" {
		r.StationID = DefaultStationID
	}
	if dir := stringField(raw, FieldWindDirection); dir != "" {
		r.WindDirection = &dir
	}
	if rain := numberField(raw, FieldRainfall); rain != nil {
		r.Rainfall = *rain
	}

	return r
}

func lookup(raw map[string]any, f Field) (any, bool) {
	for _, key := range FieldAliases[f] {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func numberField(raw map[string]any, f Field) *float64 {
	v, ok := lookup(raw, f)
	if !ok {
		return nil
	}
	n, ok := common.ToFloat(v)
	if !ok {
		return nil
	}
	return &n
}

// stringField skips blank values so a later alias can still supply one.
func stringField(raw map[string]any, f Field) string {
	for _, key := range FieldAliases[f] {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Numeric timestamps above this are unix milliseconds (year 5138 in seconds).
const millisThreshold = 1e11

// timeField accepts RFC3339 strings, unix seconds or unix milliseconds. Any
// instant outside years 0-9999 falls back, since it cannot be encoded.
func timeField(raw map[string]any, f Field, fallback time.Time) time.Time {
	v, ok := lookup(raw, f)
	if !ok {
		return fallback.UTC()
	}
	var t time.Time
	switch ts := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(ts))
		if err != nil {
			return fallback.UTC()
		}
		t = parsed
	case float64:
		if ts <= 0 || ts >= math.MaxInt64 || math.IsNaN(ts) {
			return fallback.UTC()
		}
		if ts > millisThreshold {
			t = time.UnixMilli(int64(ts))
		} else {
			t = time.Unix(int64(ts), 0)
		}
	default:
		return fallback.UTC()
	}
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return fallback.UTC()
	}
	return t.UTC()
}
