package station

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/metrics"
)

// Origin records how a reading reached the service.
type Origin string

const (
	OriginHTTP      Origin = "http"
	OriginMQTT      Origin = "mqtt"
	OriginSimulated Origin = "simulate"
)

// Slot holds exactly one reading. Store must replace the previous value as a
// whole so concurrent Loads never observe a partial reading.
type Slot interface {
	Load() (Reading, bool)
	Store(r Reading)
}

// Persister keeps a durable copy of ingested readings.
type Persister interface {
	SaveReading(ctx context.Context, r Reading) error
}

// Service ingests station readings into the latest-reading slot.
type Service struct {
	slot      Slot
	persister Persister
	metrics   *metrics.Metrics
	logger    *slog.Logger

	now            func() time.Time
	random         func() float64
	newID          func() string
	persistTimeout time.Duration

	inflight sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithPersister enables best-effort durable writes.
func WithPersister(p Persister) Option {
	return func(s *Service) { s.persister = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRandom overrides the [0,1) source used by Simulate.
func WithRandom(random func() float64) Option {
	return func(s *Service) { s.random = random }
}

// NewService creates a Service writing into slot.
func NewService(slot Slot, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		slot:           slot,
		logger:         logger,
		now:            time.Now,
		random:         rand.Float64,
		newID:          uuid.NewString,
		persistTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Ingest normalizes raw, replaces the latest reading and returns the stored value.
func (s *Service) Ingest(origin Origin, raw map[string]any) Reading {
	return s.store(origin, Normalize(raw, s.now()))
}

// Simulate fabricates a plausible reading and stores it like Ingest does.
func (s *Service) Simulate() Reading {
	now := s.now().UTC()
	dir := CompassPoints[min(int(s.random()*float64(len(CompassPoints))), len(CompassPoints)-1)]

	r := Reading{
		StationID:       DefaultStationID,
		AirTemperature:  common.Float(s.between(20, 38)),
		Humidity:        common.Float(s.between(40, 85)),
		SoilTemperature: common.Float(s.between(18, 32)),
		SoilMoisture:    common.Float(s.between(20, 60)),
		WindSpeed:       common.Float(s.between(0, 20)),
		WindDirection:   &dir,
		Rainfall:        s.between(0, 10),
		Timestamp:       now,
		Simulated:       true,
	}
	return s.store(OriginSimulated, r)
}

// Latest returns the current slot contents; false means nothing was ingested yet.
func (s *Service) Latest() (Reading, bool) {
	return s.slot.Load()
}

// Wait blocks until pending durable writes have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) store(origin Origin, r Reading) Reading {
	r.ID = s.newID()
	r.ReceivedAt = s.now().UTC()

	s.slot.Store(r)
	s.metrics.StationIngested(string(origin))
	s.logger.Info("station reading stored",
		"origin", origin,
		"station_id", r.StationID,
		"reading_id", r.ID,
		"simulated", r.Simulated,
	)

	s.persistAsync(r)
	return r
}

// persistAsync writes r in the background; failures are logged and counted only.
func (s *Service) persistAsync(r Reading) {
	if s.persister == nil {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := s.persister.SaveReading(ctx, r); err != nil {
			s.metrics.PersistFailed()
			s.logger.Warn("station reading not persisted",
				"station_id", r.StationID,
				"reading_id", r.ID,
				"error", err,
			)
		}
	}()
}

func (s *Service) between(lo, hi float64) float64 {
	return common.Round1(lo + s.random()*(hi-lo))
}
