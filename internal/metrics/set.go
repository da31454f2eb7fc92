package metrics

import (
	"sync"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Set fans a step out to several metrics. It satisfies sim.Observer and may
// be read from another goroutine while the simulation runs.
type Set struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

func (s *Set) OnStep(bodies []dynamo.Body, step int, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.OnStep(bodies, step, t)
	}
}

// Values returns the current value of every metric keyed by name.
func (s *Set) Values() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Standard returns the metrics reported by the CLI for a run.
func Standard(model any, radius float64) *Set {
	ms := []Metric{NewMomentumDrift(), NewCenterOfMassDrift(), NewStability(radius)}
	if h, ok := model.(physics.Hamiltonian); ok {
		ms = append([]Metric{NewEnergyDrift(h)}, ms...)
	}
	return NewSet(ms...)
}
