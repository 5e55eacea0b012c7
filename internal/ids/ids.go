// Package ids provides injectable unique id generators for stored records.
package ids

import (
	"sync"
	"time"
)

// Generator hands out int64 ids. Implementations must never repeat a value.
type Generator interface {
	Next() int64
}

// Monotonic derives ids from the wall clock in milliseconds, bumping by one
// whenever two calls land in the same millisecond or the clock steps back.
//
// Thread-safety: all methods are safe for concurrent use.
type Monotonic struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewMonotonic creates a Monotonic generator. A nil now uses time.Now.
func NewMonotonic(now func() time.Time) *Monotonic {
	if now == nil {
		now = time.Now
	}
	return &Monotonic{now: now}
}

// Next returns a value strictly greater than every previous one.
func (g *Monotonic) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Sequence is a deterministic counter for tests.
//
// The first call to Next() returns start.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence creates a Sequence whose first value is start.
func NewSequence(start int64) *Sequence {
	return &Sequence{seq: start - 1}
}

// Next increments and returns the next value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}
