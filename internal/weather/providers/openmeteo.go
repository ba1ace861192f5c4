package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather/internal/metrics"
	"github.com/i474232898/farm-weather/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const (
	openMeteoCurrent = "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation,soil_temperature_0cm,soil_moisture_0_to_1cm"
	openMeteoHourly  = "temperature_2m,soil_temperature_0cm"
	openMeteoDaily   = "temperature_2m_max,temperature_2m_min,precipitation_probability_max"

	// Hourly times come back in the location's local time without an offset.
	openMeteoLocalTime = "2006-01-02T15:04"
	openMeteoDate      = "2006-01-02"
)

// OpenMeteoProvider implements the weather.Fetcher interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string, m *metrics.Metrics) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	name := string(weather.SourceOpenMeteo)
	return &OpenMeteoProvider{
		name:    name,
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker(name, m),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          struct {
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		Precipitation *float64 `json:"precipitation"`
		SoilTemp      *float64 `json:"soil_temperature_0cm"`
		SoilMoisture  *float64 `json:"soil_moisture_0_to_1cm"`
	} `json:"current"`
	Daily struct {
		Time       []string   `json:"time"`
		TempMax    []*float64 `json:"temperature_2m_max"`
		TempMin    []*float64 `json:"temperature_2m_min"`
		PrecipProb []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
	Hourly struct {
		Time     []string   `json:"time"`
		Temp     []*float64 `json:"temperature_2m"`
		SoilTemp []*float64 `json:"soil_temperature_0cm"`
	} `json:"hourly"`
}

// Fetch calls Open-Meteo once for lat/lon and maps the response into a
// weather.Report. Missing provider values become nil rather than being omitted.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Report, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current", openMeteoCurrent)
		values.Set("hourly", openMeteoHourly)
		values.Set("daily", openMeteoDaily)
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(weather.ForecastDays))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Report{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Report{}, fmt.Errorf("decode open-meteo response: %w", err)
	}

	return payload.toReport()
}

func (pl openMeteoPayload) toReport() (weather.Report, error) {
	zone := time.FixedZone("", pl.UTCOffsetSeconds)

	// A forecast is either absent or a full week.
	if n := len(pl.Daily.Time); n > 0 && n < weather.ForecastDays {
		return weather.Report{}, fmt.Errorf("%w: %d daily entries, want %d", errShortForecast, n, weather.ForecastDays)
	}

	forecast := make([]weather.DailyForecast, 0, weather.ForecastDays)
	for i, day := range pl.Daily.Time {
		if i >= weather.ForecastDays {
			break
		}
		d, err := time.Parse(openMeteoDate, strings.TrimSpace(day))
		if err != nil {
			return weather.Report{}, fmt.Errorf("parse daily date %q: %w", day, err)
		}
		forecast = append(forecast, weather.DailyForecast{
			Date:            d.Format(openMeteoDate),
			Max:             at(pl.Daily.TempMax, i),
			Min:             at(pl.Daily.TempMin, i),
			RainProbability: at(pl.Daily.PrecipProb, i),
		})
	}

	hourly := make([]weather.HourlyPoint, 0, weather.HourlyPoints)
	for i, ts := range pl.Hourly.Time {
		if i >= weather.HourlyPoints {
			break
		}
		instant, err := parseOpenMeteoTime(ts, zone)
		if err != nil {
			return weather.Report{}, err
		}
		hourly = append(hourly, weather.HourlyPoint{
			Time:     instant,
			Temp:     at(pl.Hourly.Temp, i),
			SoilTemp: at(pl.Hourly.SoilTemp, i),
		})
	}

	return weather.Report{
		Current: weather.Current{
			Temp:         pl.Current.Temperature,
			Humidity:     pl.Current.Humidity,
			Wind:         pl.Current.WindSpeed,
			Rainfall:     pl.Current.Precipitation,
			SoilTemp:     pl.Current.SoilTemp,
			SoilMoisture: pl.Current.SoilMoisture,
		},
		Forecast: forecast,
		Hourly:   hourly,
		Source:   weather.SourceOpenMeteo,
	}, nil
}

func parseOpenMeteoTime(s string, zone *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(openMeteoLocalTime, s, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse hourly time %q: %w", s, err)
	}
	return t, nil
}

func at(xs []*float64, i int) *float64 {
	if i < 0 || i >= len(xs) {
		return nil
	}
	return xs[i]
}
