package publisher

import (
	"math/rand/v2"
	"sync"

	audit "onboard/pkg/platform/audit"
)

// Sampler thins out operational events. Nightly rescoring emits one
// client_evaluated event per client, which is rarely worth keeping in full.
// Compliance events are never passed to the sampler.
type Sampler struct {
	mu          sync.RWMutex
	defaultRate float64
	rates       map[audit.AuditEvent]float64
	random      func() float64
}

// NewSampler keeps each event with probability defaultRate (0..1).
func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate: clampRate(defaultRate),
		rates:       make(map[audit.AuditEvent]float64),
		random:      rand.Float64, //nolint:gosec // sampling doesn't need crypto rand
	}
}

// SetRate overrides the rate for one action.
func (s *Sampler) SetRate(action audit.AuditEvent, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[action] = clampRate(rate)
}

// Keep reports whether the event survives sampling.
func (s *Sampler) Keep(action audit.AuditEvent) bool {
	s.mu.RLock()
	rate, ok := s.rates[action]
	if !ok {
		rate = s.defaultRate
	}
	s.mu.RUnlock()

	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.random() < rate
}

func clampRate(rate float64) float64 {
	return max(0, min(1, rate))
}
