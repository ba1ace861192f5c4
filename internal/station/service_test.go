package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/metrics"
)

type atomicSlot struct {
	p atomic.Pointer[Reading]
}

func (s *atomicSlot) Load() (Reading, bool) {
	r := s.p.Load()
	if r == nil {
		return Reading{}, false
	}
	return *r, true
}

func (s *atomicSlot) Store(r Reading) { s.p.Store(&r) }

type recordingPersister struct {
	mu    sync.Mutex
	saved []Reading
	err   error
	block chan struct{}
}

func (p *recordingPersister) SaveReading(ctx context.Context, r Reading) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, r)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func newTestService(opts ...Option) (*Service, *atomicSlot) {
	slot := &atomicSlot{}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(slot, nil, opts...), slot
}

func TestLatestEmpty(t *testing.T) {
	svc, _ := newTestService()

	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestIngestStoresAndStamps(t *testing.T) {
	persister := &recordingPersister{}
	svc, _ := newTestService(WithPersister(persister))

	stored := svc.Ingest(OriginHTTP, map[string]any{"temperature": 29.0})
	svc.Wait()

	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, fixedNow, stored.ReceivedAt)
	assert.False(t, stored.Simulated)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, stored, latest)

	require.Equal(t, 1, persister.count())
	assert.Equal(t, stored.ID, persister.saved[0].ID)
}

func TestIngestReplacesPrevious(t *testing.T) {
	svc, _ := newTestService()

	svc.Ingest(OriginHTTP, map[string]any{"temperature": 20.0})
	second := svc.Ingest(OriginMQTT, map[string]any{"air_temperature": 21.0})

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 21.0, *latest.AirTemperature)
}

func TestPersistFailureDoesNotAffectIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	persister := &recordingPersister{err: errors.New("disk full")}
	svc, _ := newTestService(WithPersister(persister), WithMetrics(metrics.New(reg)))

	stored := svc.Ingest(OriginHTTP, map[string]any{"humidity": 50.0})
	svc.Wait()

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, stored.ID, latest.ID)
}

func TestIngestDoesNotWaitForPersistence(t *testing.T) {
	persister := &recordingPersister{block: make(chan struct{})}
	svc, _ := newTestService(WithPersister(persister))

	done := make(chan Reading, 1)
	go func() { done <- svc.Ingest(OriginHTTP, map[string]any{"humidity": 61.0}) }()

	select {
	case r := <-done:
		assert.Equal(t, 61.0, *r.Humidity)
	case <-time.After(2 * time.Second):
		t.Fatal("ingest blocked on persistence")
	}

	close(persister.block)
	svc.Wait()
	assert.Equal(t, 1, persister.count())
}

func TestSimulateBounds(t *testing.T) {
	for _, v := range []float64{0, 0.5, 0.999999} {
		v := v
		t.Run(fmt.Sprintf("random=%v", v), func(t *testing.T) {
			svc, _ := newTestService(WithRandom(func() float64 { return v }))

			r := svc.Simulate()

			assert.True(t, r.Simulated)
			assert.InDelta(t, 29, *r.AirTemperature, 9.0001)
			assert.InDelta(t, 62.5, *r.Humidity, 22.5001)
			assert.InDelta(t, 25, *r.SoilTemperature, 7.0001)
			assert.InDelta(t, 40, *r.SoilMoisture, 20.0001)
			assert.InDelta(t, 10, *r.WindSpeed, 10.0001)
			assert.InDelta(t, 5, r.Rainfall, 5.0001)
			assert.Contains(t, CompassPoints, *r.WindDirection)

			latest, ok := svc.Latest()
			require.True(t, ok)
			assert.Equal(t, r, latest)
		})
	}
}

func TestConcurrentIngestAndRead(t *testing.T) {
	svc, _ := newTestService()
	svc.Ingest(OriginHTTP, map[string]any{"air_temperature": 0.0, "humidity": 0.0, "soil_moisture": 0.0})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r, ok := svc.Latest()
				if !ok {
					t.Error("slot emptied during writes")
					return
				}
				// Every write uses one value for all three fields.
				if *r.AirTemperature != *r.Humidity || *r.Humidity != *r.SoilMoisture {
					t.Errorf("torn read: %v %v %v", *r.AirTemperature, *r.Humidity, *r.SoilMoisture)
					return
				}
			}
		}()
	}

	for i := 1; i <= 500; i++ {
		v := float64(i)
		svc.Ingest(OriginHTTP, map[string]any{"air_temperature": v, "humidity": v, "soil_moisture": v})
	}
	close(stop)
	wg.Wait()

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, 500.0, *latest.AirTemperature)
}
