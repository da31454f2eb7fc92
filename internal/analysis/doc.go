// Package analysis characterizes trajectories of an N-body system.
//
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//
// # Chaos Detection
//
// A clearly positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(force, integ, bodies, dt, duration, 1e-8)
//	if err == nil && lambda > 0.1 {
//	    // System is chaotic
//	}
//
// Integrable systems such as a two-body orbit give values near zero that
// shrink as the duration grows.
package analysis
