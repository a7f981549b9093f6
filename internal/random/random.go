// Package random provides the single randomness source used by the bot.
// Every shuffle, amount draw and delay goes through a Service so runs can
// be made reproducible in tests by seeding.
package random

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Service wraps a math/rand source behind a mutex so it can be shared
// between the scheduler and the executors.
type Service struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Service seeded from the wall clock.
func New() *Service {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Service with a fixed seed. Used in tests.
func NewSeeded(seed int64) *Service {
	return &Service{rnd: rand.New(rand.NewSource(seed))}
}

// IntBetween returns a uniform integer in [min, max] inclusive.
func (s *Service) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rnd.Intn(max-min+1)
}

// Float64Between returns a uniform float in [min, max].
func (s *Service) Float64Between(min, max float64) float64 {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rnd.Float64()*(max-min)
}

// Shuffle runs a Fisher–Yates shuffle over n elements.
func (s *Service) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

// Duration returns a uniform duration in [min, max].
func (s *Service) Duration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + time.Duration(s.rnd.Int63n(int64(max-min)+1))
}

// Delay sleeps for a random duration in [min, max]. It returns early with
// the context error if the run is cancelled while sleeping.
func (s *Service) Delay(ctx context.Context, min, max time.Duration) error {
	d := s.Duration(min, max)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
