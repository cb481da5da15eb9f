package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, InitialPhase, s.Phase)
	assert.True(t, s.StartedAt.IsZero())
	assert.False(t, s.Terminated())

	// Correlation ids are unique per session.
	assert.NotEqual(t, s.ID, New().ID)
}

func TestMarkDispatchedOnlyFirstCallSticks(t *testing.T) {
	s := New()
	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.MarkDispatched(first)
	s.MarkDispatched(first.Add(time.Hour))
	assert.Equal(t, first, s.StartedAt)
}

func TestTerminateTransitionsExactlyOnce(t *testing.T) {
	s := New()

	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Terminate() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, s.Terminated())
}
