package physics

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// minRowsPerWorker keeps goroutine overhead below the per-row cost.
const minRowsPerWorker = 16

// ForceModel computes the net gravitational acceleration of every body.
// Implementations must not retain or mutate the input slice.
type ForceModel interface {
	Name() string
	Accelerations(bodies []dynamo.Body, out []dynamo.Vec3) (Report, error)
}

// Hamiltonian is implemented by force models that can report total energy.
type Hamiltonian interface {
	Energy(bodies []dynamo.Body) float64
}

// Report describes noteworthy events of one evaluation.
type Report struct {
	// NearMisses counts body pairs closer than the softening length that
	// were skipped under the skip policy.
	NearMisses int
}

// Direct is the O(n²) pairwise force model.
type Direct struct {
	G                 float64
	Softening         float64
	Policy            dynamo.SofteningPolicy
	ParallelThreshold int
	Workers           int
}

func NewDirect(cfg dynamo.Config) *Direct {
	return &Direct{
		G:                 cfg.G,
		Softening:         cfg.Softening,
		Policy:            cfg.Policy,
		ParallelThreshold: cfg.ParallelThreshold,
		Workers:           cfg.Workers,
	}
}

func (d *Direct) Name() string { return "direct" }

// Accelerations writes a_i = Σ G m_j (p_j - p_i) / r³ into out[i].
func (d *Direct) Accelerations(bodies []dynamo.Body, out []dynamo.Vec3) (Report, error) {
	n := len(bodies)
	if len(out) != n {
		return Report{}, fmt.Errorf("physics: output has %d slots for %d bodies", len(out), n)
	}

	if d.ParallelThreshold > 0 && n >= d.ParallelThreshold {
		var misses atomic.Int64
		err := dynamo.ParallelFor(n, minRowsPerWorker, d.Workers, func(start, end int) error {
			misses.Add(int64(d.rows(bodies, out, start, end)))
			return nil
		})
		return Report{NearMisses: int(misses.Load())}, err
	}

	return Report{NearMisses: d.rows(bodies, out, 0, n)}, nil
}

// rows fills out[start:end] and returns the number of skipped pairs (i < j)
// among those rows.
func (d *Direct) rows(bodies []dynamo.Body, out []dynamo.Vec3, start, end int) int {
	eps := d.Softening
	eps2 := eps * eps
	misses := 0

	for i := start; i < end; i++ {
		pi := bodies[i].Position
		var acc dynamo.Vec3

		for j := range bodies {
			if i == j {
				continue
			}

			rij := bodies[j].Position.Sub(pi)
			r2 := rij.Dot(rij)

			var r3Inv float64
			switch d.Policy {
			case dynamo.SoftenPlummer:
				r2 += eps2
				r3Inv = 1.0 / (r2 * math.Sqrt(r2))
			case dynamo.SoftenSkip:
				r := math.Sqrt(r2)
				if r < eps {
					if i < j {
						misses++
					}
					continue
				}
				r3Inv = 1.0 / (r * r * r)
			default:
				r := math.Max(math.Sqrt(r2), eps)
				r3Inv = 1.0 / (r * r * r)
			}

			acc = acc.Add(rij.Mul(d.G * bodies[j].Mass * r3Inv))
		}

		out[i] = acc
	}

	return misses
}

// Energy returns kinetic plus potential energy, softened the same way as the
// accelerations.
func (d *Direct) Energy(bodies []dynamo.Body) float64 {
	ke := 0.0
	pe := 0.0

	for i := range bodies {
		v := bodies[i].Velocity
		ke += 0.5 * bodies[i].Mass * v.Dot(v)

		for j := i + 1; j < len(bodies); j++ {
			r := bodies[j].Position.Sub(bodies[i].Position).Len()
			switch d.Policy {
			case dynamo.SoftenPlummer:
				r = math.Sqrt(r*r + d.Softening*d.Softening)
			case dynamo.SoftenSkip:
				if r < d.Softening {
					continue
				}
			default:
				r = math.Max(r, d.Softening)
			}
			pe -= d.G * bodies[i].Mass * bodies[j].Mass / r
		}
	}

	return ke + pe
}

// New returns the force model selected by cfg.
func New(cfg dynamo.Config) (ForceModel, error) {
	if _, err := dynamo.ParseSofteningPolicy(string(cfg.Policy)); err != nil {
		return nil, err
	}
	return NewDirect(cfg), nil
}
