// Package sample draws uniform random subsets without replacement.
package sample

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a seedable random source safe for concurrent use.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a deterministic Source for the given seed.
func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSource returns a Source seeded from the clock.
func NewTimeSource() *Source {
	return NewSource(uint64(time.Now().UnixNano()))
}

// IntN returns a uniform int in [0, n).
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Sample returns min(k, len(items)) distinct elements of items chosen
// uniformly at random. items is not modified. The order of the result is random.
func Sample[T any](src *Source, items []T, k int) []T {
	n := len(items)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []T{}
	}

	// Partial Fisher-Yates over a copy.
	buf := make([]T, n)
	copy(buf, items)

	src.mu.Lock()
	defer src.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + src.rng.IntN(n-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k:k]
}
