package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/station"
)

func TestMemoryStoreSingleSlot(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Load()
	assert.False(t, ok)

	s.Store(station.Reading{ID: "a", StationID: "north"})
	s.Store(station.Reading{ID: "b", StationID: "south"})

	got, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, "south", got.StationID)
}

func TestMemoryStoreCopiesOnStore(t *testing.T) {
	s := NewMemoryStore()

	r := station.Reading{ID: "a", Rainfall: 1}
	s.Store(r)
	r.Rainfall = 9

	got, _ := s.Load()
	assert.Equal(t, 1.0, got.Rainfall)
}
