// Package rng wraps a seeded math/rand source so it can be shared by
// concurrently running squads and replaced by a fixed seed in tests.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source is a goroutine-safe random number source.
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a source seeded with seed. A zero seed picks one from the clock.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// IntBetween returns an integer uniformly drawn from [lo, hi].
func (s *Source) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Between returns a float uniformly drawn from [lo, hi].
func (s *Source) Between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.Float64() < p
}
