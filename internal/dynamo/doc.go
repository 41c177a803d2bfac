// Package dynamo provides the core data model and step loop for deformable bodies.
//
// The package defines the types every other package shares:
//
//   - [Particles]: index-aligned rest/current/previous positions and inverse masses
//   - [DistanceConstraint]: one XPBD distance constraint with its persistent multiplier
//   - [Body]: the per-step contract (integrate, solve, collide) of a simulated body
//   - [Integrator]: position integrator over a particle set
//   - [Simulator]: runs a body through a fixed number of steps
//
// # Example
//
//	body, _ := physics.NewSoftBody(mesh.Deduplicate(mesh.UnitCube()), physics.Options{})
//	sim := dynamo.New(body)
//	result, _ := sim.Run(ctx, dynamo.DefaultConfig())
//
// # Thread Safety
//
// A Body has exactly one writer. Readers (renderers, metrics, observers) look at
// positions only after a step has completed. For independent parallel runs use
// [Ensemble], which gives every run its own body.
package dynamo
