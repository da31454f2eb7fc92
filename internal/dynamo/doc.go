// Package dynamo provides the shared primitives of the N-body engine.
//
// The package defines the value types and contracts every other package
// builds on:
//
//   - [Vec3]: three-component vector (an alias of mgl64.Vec3)
//   - [Body] and [Descriptor]: a point mass and its creation parameters
//   - [Config]: physics, clock and trail configuration
//   - [PositionRecord]: one row of the append-only position log
//   - the error taxonomy ([ErrInvalidMass], [ErrInvalidTimestep], ...)
//
// # Example
//
//	cfg := dynamo.DefaultConfig()
//	cfg.Integrator = "leapfrog"
//	sim, err := sim.New(scenario.Binary(), cfg)
//
// # Units
//
// The engine is unit-agnostic: G, masses, distances and dt only need to be
// expressed in one consistent system (SI, AU/day/solar-mass, or G = 1).
package dynamo
