// Package physics computes Newtonian gravity between point masses.
//
// A [ForceModel] turns the bodies of one state into accelerations:
//
//   - [Direct]: pairwise O(n²) summation, evaluated across goroutines above
//     a configurable body count
//
// Close encounters are handled by the configured [dynamo.SofteningPolicy]:
// clamp the pair distance, skip the pair, or Plummer-soften r².
//
// # Energy Conservation
//
// Force models that implement [Hamiltonian] report total energy, which the
// metrics package uses to measure integrator drift:
//
//	model := physics.NewDirect(cfg)
//	e0 := model.Energy(bodies)
//
// [Momentum], [AngularMomentum] and [CenterOfMass] give the other
// conserved quantities of an isolated system.
package physics
