// Package session holds the accumulated state for one monitoring run and the
// classifier that folds raw events into it.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planmon/planmon/internal/client"
)

// InitialPhase is the sentinel phase before any test starts.
const InitialPhase = "Initializing"

// Thought is one captured reasoning step. The log is append-only and
// chronological.
type Thought struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`
	Thought   string    `json:"thought"`
}

// Session is the mutable state for one monitoring run, from dispatch to
// finalized artifact. It is owned by the supervisor, which lends mutable
// access to the classifier; no other component writes it. Thoughts and
// Findings only grow, Plan is replaced wholesale, and termination happens
// exactly once.
type Session struct {
	ID        string
	Phase     string
	StartedAt time.Time
	Thoughts  []Thought
	Plan      *client.TestPlan
	Findings  []client.Finding

	mu         sync.Mutex
	terminated bool
}

// New creates a session with a fresh correlation identifier.
func New() *Session {
	return &Session{
		ID:    uuid.NewString(),
		Phase: InitialPhase,
	}
}

// MarkDispatched records the dispatch timestamp. Only the first call takes
// effect.
func (s *Session) MarkDispatched(t time.Time) {
	if s.StartedAt.IsZero() {
		s.StartedAt = t
	}
}

// Terminate flips the session to terminated and reports whether this call
// was the transition. A terminal event and an operator cancellation can
// race; exactly one caller wins.
func (s *Session) Terminate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return false
	}
	s.terminated = true
	return true
}

// Terminated reports whether the session has ended.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}
