package weather

import (
	"context"

	"github.com/i474232898/farm-weather/internal/station"
)

// Fetcher abstracts an external forecast service (e.g. Open-Meteo).
// Implementations fail instead of fabricating data.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Report, error)
}

// StationSource exposes the latest locally ingested station reading.
type StationSource interface {
	Latest() (station.Reading, bool)
}
