package store

import (
	"sync/atomic"

	"github.com/i474232898/farm-weather/internal/station"
)

// MemoryStore is a single-slot, last-write-wins holder for the latest station
// reading. Writes swap a fully built value in one atomic step.
type MemoryStore struct {
	latest atomic.Pointer[station.Reading]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store replaces the held reading.
func (s *MemoryStore) Store(r station.Reading) {
	s.latest.Store(&r)
}

// Load returns the held reading, or false if nothing has been stored yet.
func (s *MemoryStore) Load() (station.Reading, bool) {
	r := s.latest.Load()
	if r == nil {
		return station.Reading{}, false
	}
	return *r, true
}
