package services

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Clock supplies timestamps to services
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// RandomSource is the randomness used for sampling questions and shuffling choices
type RandomSource interface {
	// IntN returns a uniform value in [0, n)
	IntN(n int) int
	// Shuffle permutes n elements uniformly
	Shuffle(n int, swap func(i, j int))
}

// NewRandomSource returns the process wide generator, or a deterministic one
// when seed is set
func NewRandomSource(seed *uint64) RandomSource {
	if seed == nil {
		return globalSource{}
	}
	return NewSeededSource(*seed)
}

// NewSeededSource returns a deterministic, concurrency safe source
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type globalSource struct{}

func (globalSource) IntN(n int) int                     { return rand.IntN(n) }
func (globalSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *seededSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}
