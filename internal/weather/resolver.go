package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/farm-weather/internal/metrics"
	"github.com/i474232898/farm-weather/internal/station"
)

var (
	errNoStationReading    = errors.New("no station reading")
	errStaleStationReading = errors.New("station reading too old")
	errNoFetcher           = errors.New("no external fetcher configured")
)

// Query carries the raw request parameters; all fields may be empty.
type Query struct {
	Latitude  string
	Longitude string
	Mode      string
}

// ResolverConfig holds the Resolver's tunables.
type ResolverConfig struct {
	DefaultLatitude  float64
	DefaultLongitude float64

	// FetchTimeout bounds the external call; zero means 10s.
	FetchTimeout time.Duration

	// StationMaxAge makes older station readings fall through to the next tier.
	// Zero keeps any present reading authoritative.
	StationMaxAge time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Resolver picks the best available source for each weather request:
// station reading, then external fetcher, then mock.
type Resolver struct {
	station StationSource
	fetcher Fetcher
	mock    *MockGenerator
	cfg     ResolverConfig
	logger  *slog.Logger
	now     func() time.Time
}

// stage is one tier of the resolution cascade.
type stage struct {
	source Source
	run    func(ctx context.Context, loc Location) (Report, error)
}

// NewResolver creates a Resolver. station and fetcher may be nil, in which
// case their tier is always skipped.
func NewResolver(st StationSource, fetcher Fetcher, mock *MockGenerator, cfg ResolverConfig) *Resolver {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if mock == nil {
		mock = NewMockGenerator()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		station: st,
		fetcher: fetcher,
		mock:    mock,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns a report for q. It never fails: every path, including a
// panic inside a tier, ends in a usable report.
func (r *Resolver) Resolve(ctx context.Context, q Query) (report Report) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("weather resolution failed; serving mock at default location", "panic", fmt.Sprint(rec))
			report = r.mock.Generate(r.cfg.DefaultLatitude, r.cfg.DefaultLongitude, ModeAuto)
			r.cfg.Metrics.WeatherResolved(string(SourceMock))
		}
	}()

	loc := r.resolveLocation(q)

	stages := []stage{
		{source: SourceStation, run: r.fromStation},
		{source: SourceOpenMeteo, run: r.fromFetcher},
	}
	for _, st := range stages {
		rep, err := st.run(ctx, loc)
		if err != nil {
			if st.source == SourceStation {
				r.logger.Debug("station tier skipped", "reason", err)
			} else {
				r.logger.Warn("external weather unavailable", "source", st.source, "error", err)
			}
			continue
		}
		rep.Source = st.source
		rep.Location = loc
		r.cfg.Metrics.WeatherResolved(string(st.source))
		return rep
	}

	r.logger.Info("serving mock weather", "latitude", loc.Latitude, "longitude", loc.Longitude)
	r.cfg.Metrics.WeatherResolved(string(SourceMock))
	return r.mock.Generate(loc.Latitude, loc.Longitude, loc.Mode)
}

// resolveLocation applies the auto/manual rules: auto mode or no coordinates
// at all selects the defaults; otherwise each coordinate is parsed on its own
// and falls back to its default when unusable.
func (r *Resolver) resolveLocation(q Query) Location {
	lat := strings.TrimSpace(q.Latitude)
	lon := strings.TrimSpace(q.Longitude)

	if q.Mode == string(ModeAuto) || (lat == "" && lon == "") {
		return Location{
			Latitude:  r.cfg.DefaultLatitude,
			Longitude: r.cfg.DefaultLongitude,
			Mode:      ModeAuto,
		}
	}

	return Location{
		Latitude:  parseCoordinate(lat, r.cfg.DefaultLatitude),
		Longitude: parseCoordinate(lon, r.cfg.DefaultLongitude),
		Mode:      ModeManual,
	}
}

func parseCoordinate(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func (r *Resolver) fromStation(_ context.Context, _ Location) (Report, error) {
	if r.station == nil {
		return Report{}, errNoStationReading
	}
	reading, ok := r.station.Latest()
	if !ok {
		return Report{}, errNoStationReading
	}
	if r.cfg.StationMaxAge > 0 && r.now().Sub(reading.ReceivedAt) > r.cfg.StationMaxAge {
		return Report{}, errStaleStationReading
	}
	return fromStationReading(reading), nil
}

func (r *Resolver) fromFetcher(ctx context.Context, loc Location) (Report, error) {
	if r.fetcher == nil {
		return Report{}, errNoFetcher
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	r.logger.Debug("fetching external weather", "provider", r.fetcher.Name(), "latitude", loc.Latitude, "longitude", loc.Longitude)
	rep, err := r.fetcher.Fetch(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", r.fetcher.Name(), err)
	}
	if rep.Forecast == nil {
		rep.Forecast = []DailyForecast{}
	}
	if rep.Hourly == nil {
		rep.Hourly = []HourlyPoint{}
	}
	return rep, nil
}

// fromStationReading maps a station snapshot into a report with no forecast.
func fromStationReading(s station.Reading) Report {
	rain := s.Rainfall
	return Report{
		Current: Current{
			Temp:         s.AirTemperature,
			Humidity:     s.Humidity,
			Wind:         s.WindSpeed,
			Rainfall:     &rain,
			SoilTemp:     s.SoilTemperature,
			SoilMoisture: s.SoilMoisture,
		},
		Forecast: []DailyForecast{},
		Hourly:   []HourlyPoint{},
	}
}
