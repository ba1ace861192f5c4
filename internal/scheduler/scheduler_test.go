package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 2, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestPruneUsesRetentionWindow(t *testing.T) {
	p := &fakePruner{}
	s := New(p, 24*time.Hour, time.Hour, nil)
	now := time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.prune()

	require.Equal(t, 1, p.calls())
	assert.Equal(t, now.Add(-24*time.Hour), p.cutoffs[0])
}

func TestPruneErrorIsLoggedOnly(t *testing.T) {
	p := &fakePruner{err: errors.New("database is locked")}
	s := New(p, time.Hour, time.Hour, nil)

	assert.NotPanics(t, s.prune)
	assert.Equal(t, 1, p.calls())
}

func TestStartRunsJobImmediately(t *testing.T) {
	p := &fakePruner{}
	s := New(p, time.Hour, time.Hour, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return p.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutPrunerIsNoop(t *testing.T) {
	s := New(nil, time.Hour, time.Hour, nil)

	require.NoError(t, s.Start())
	s.Stop()
}
