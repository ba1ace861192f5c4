package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/station"
	"github.com/i474232898/farm-weather/internal/store"
	"github.com/i474232898/farm-weather/internal/weather"
)

var validate = validator.New()

const (
	historyLimit = 1000
	alertsLimit  = 10
)

// Archive is the durable reading history; optional.
type Archive interface {
	LatestReading(ctx context.Context, stationID string) (station.Reading, error)
	History(ctx context.Context, stationID string, since time.Time, limit int) ([]station.Reading, error)
}

// CityArchive stores city weather bulletins; optional.
type CityArchive interface {
	SaveCityWeather(ctx context.Context, cw weather.CityWeather) (weather.CityWeather, error)
	LatestCityWeather(ctx context.Context, city string) (weather.CityWeather, error)
	RecentAlerts(ctx context.Context, limit int) ([]weather.CityAlerts, error)
}

// Dependencies are the services the HTTP layer exposes.
type Dependencies struct {
	Resolver *weather.Resolver
	Stations *station.Service
	Archive  Archive     // nil when persistence is disabled
	Cities   CityArchive // nil when persistence is disabled
	Mock     *weather.MockGenerator
	Logger   *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Mock == nil {
		deps.Mock = weather.NewMockGenerator()
	}
	h := &handlers{deps: deps}

	app.Get("/api/weather", h.getWeather)
	app.Get("/api/weather/alerts/all", h.getAlerts)
	app.Post("/api/weather/cities", h.recordCityWeather)
	app.Get("/api/weather/:city", h.getCityWeather)

	// Stations post to either prefix.
	for _, prefix := range []string{"/api/station", "/api/weather-station"} {
		g := app.Group(prefix)
		g.Post("/data", h.receiveReading)
		g.Get("/simulate", h.simulateReading)
		g.Get("/latest", h.latestReading)
		g.Get("/:stationId/latest", h.stationLatest)
		g.Get("/:stationId/history", h.stationHistory)
	}
}

type handlers struct {
	deps Dependencies
}

// getWeather always answers 200 with a report; the resolver cannot fail.
func (h *handlers) getWeather(c *fiber.Ctx) error {
	q := weather.Query{
		Latitude:  c.Query("latitude"),
		Longitude: c.Query("longitude"),
		Mode:      c.Query("mode"),
	}
	return c.JSON(h.deps.Resolver.Resolve(c.UserContext(), q))
}

// cityQuery holds parameters for the city lookup.
type cityQuery struct {
	City string `validate:"required,max=100"`
}

// getCityWeather serves the newest recorded bulletin for a city, or a mock one.
func (h *handlers) getCityWeather(c *fiber.Ctx) error {
	q := cityQuery{City: c.Params("city")}
	if city, err := url.PathUnescape(q.City); err == nil {
		q.City = city
	}
	q.City = strings.TrimSpace(q.City)
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if h.deps.Cities != nil {
		cw, err := h.deps.Cities.LatestCityWeather(c.UserContext(), q.City)
		switch {
		case err == nil:
			return c.JSON(cw)
		case !errors.Is(err, store.ErrNotFound):
			h.deps.Logger.Warn("city weather lookup failed", "city", q.City, "error", err)
		}
	}
	return c.JSON(h.deps.Mock.CityWeather(q.City))
}

func (h *handlers) getAlerts(c *fiber.Ctx) error {
	if h.deps.Cities != nil {
		alerts, err := h.deps.Cities.RecentAlerts(c.UserContext(), alertsLimit)
		if err != nil {
			h.deps.Logger.Warn("alert lookup failed", "error", err)
		} else if len(alerts) > 0 {
			return c.JSON(alerts)
		}
	}
	return c.JSON(h.deps.Mock.Alerts())
}

// recordCityWeather stores a manually entered bulletin.
func (h *handlers) recordCityWeather(c *fiber.Ctx) error {
	if h.deps.Cities == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "city weather storage is disabled")
	}

	var cw weather.CityWeather
	if err := c.BodyParser(&cw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object")
	}
	cw.ID = ""
	cw = cw.Normalize(time.Now())
	if err := cw.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	stored, err := h.deps.Cities.SaveCityWeather(c.UserContext(), cw)
	if err != nil {
		h.deps.Logger.Error("city weather not stored", "city", cw.City, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not store city weather")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "City weather recorded",
		"data":    stored,
	})
}

func (h *handlers) receiveReading(c *fiber.Ctx) error {
	raw, err := decodePayload(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	stored := h.deps.Stations.Ingest(station.OriginHTTP, raw)
	return c.JSON(fiber.Map{
		"message": "Sensor data received successfully",
		"data":    stored,
	})
}

func (h *handlers) simulateReading(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Simulated data generated",
		"data":    h.deps.Stations.Simulate(),
	})
}

func (h *handlers) latestReading(c *fiber.Ctx) error {
	r, ok := h.deps.Stations.Latest()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no station data received yet")
	}
	return c.JSON(r)
}

// stationLatest prefers the durable copy, then the in-memory slot, then a
// placeholder so dashboards always have something to show.
func (h *handlers) stationLatest(c *fiber.Ctx) error {
	id := c.Params("stationId")

	if h.deps.Archive != nil {
		r, err := h.deps.Archive.LatestReading(c.UserContext(), id)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"source": "database", "data": r})
		case !errors.Is(err, store.ErrNotFound):
			h.deps.Logger.Warn("archive lookup failed", "station_id", id, "error", err)
		}
	}

	if r, ok := h.deps.Stations.Latest(); ok && r.StationID == id {
		return c.JSON(fiber.Map{"source": "memory", "data": r})
	}

	return c.JSON(fiber.Map{"source": "mock", "data": placeholderReading(id)})
}

// historyQuery holds parameters for the history endpoint.
type historyQuery struct {
	StationID string `validate:"required,max=128"`
	Hours     int    `validate:"gte=1,lte=720"`
}

func (h *handlers) stationHistory(c *fiber.Ctx) error {
	q := historyQuery{
		StationID: c.Params("stationId"),
		Hours:     c.QueryInt("hours", 24),
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	data := []station.Reading{}
	if h.deps.Archive != nil {
		since := time.Now().Add(-time.Duration(q.Hours) * time.Hour)
		readings, err := h.deps.Archive.History(c.UserContext(), q.StationID, since, historyLimit)
		if err != nil {
			h.deps.Logger.Warn("archive history failed", "station_id", q.StationID, "error", err)
		} else {
			data = readings
		}
	}

	return c.JSON(fiber.Map{
		"stationId": q.StationID,
		"period":    fmt.Sprintf("%dh", q.Hours),
		"data":      data,
	})
}

// decodePayload accepts an empty body as an empty payload; anything else must
// be a JSON object.
func decodePayload(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func placeholderReading(stationID string) station.Reading {
	dir := "NW"
	now := time.Now().UTC()
	return station.Reading{
		StationID:       stationID,
		AirTemperature:  common.Float(28.5),
		Humidity:        common.Float(72),
		SoilTemperature: common.Float(24.3),
		SoilMoisture:    common.Float(45),
		WindSpeed:       common.Float(8.2),
		WindDirection:   &dir,
		Rainfall:        0,
		BatteryLevel:    common.Float(85),
		Timestamp:       now,
		ReceivedAt:      now,
	}
}
