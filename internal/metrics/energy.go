// Package metrics holds step observers that track conservation quality.
package metrics

import (
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Metric observes committed steps and reduces them to one number.
type Metric interface {
	Name() string
	OnStep(bodies []dynamo.Body, step int, t float64)
	Value() float64
	Reset()
}

// EnergyDrift tracks the largest relative deviation of total energy from
// the first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	model         physics.Hamiltonian
}

func NewEnergyDrift(model physics.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		model: model,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(bodies []dynamo.Body, _ int, _ float64) {
	energy := e.model.Energy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current returns the latest relative drift, signed.
func (e *EnergyDrift) Current() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return (e.currentEnergy - e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// vectorDrift tracks the largest absolute deviation of a vector quantity.
type vectorDrift struct {
	name     string
	measure  func([]dynamo.Body) dynamo.Vec3
	initial  dynamo.Vec3
	maxDrift float64
	samples  int
}

func (v *vectorDrift) Name() string { return v.name }

func (v *vectorDrift) OnStep(bodies []dynamo.Body, _ int, _ float64) {
	cur := v.measure(bodies)
	if v.samples == 0 {
		v.initial = cur
	}
	v.samples++
	v.maxDrift = math.Max(v.maxDrift, cur.Sub(v.initial).Len())
}

func (v *vectorDrift) Value() float64 { return v.maxDrift }

func (v *vectorDrift) Reset() {
	v.initial = dynamo.Vec3{}
	v.maxDrift = 0
	v.samples = 0
}

// NewMomentumDrift tracks |P(t) - P(0)|.
func NewMomentumDrift() Metric {
	return &vectorDrift{name: "momentum_drift", measure: physics.Momentum}
}

// NewCenterOfMassDrift tracks how far the center of mass wanders.
func NewCenterOfMassDrift() Metric {
	return &vectorDrift{
		name: "com_drift",
		measure: func(b []dynamo.Body) dynamo.Vec3 {
			com, _ := physics.CenterOfMass(b)
			return com
		},
	}
}
