// Package physics implements XPBD soft bodies built from triangle meshes.
//
// A [SoftBody] owns one particle per unique mesh vertex and one
// [dynamo.DistanceConstraint] per unique mesh edge. Each simulation step is:
//
//	body.Integrate(dt, gravity)          // position Verlet predict
//	body.SolveConstraints(dt, 6)         // Gauss-Seidel XPBD projection
//	body.SolveFloorCollision(0)          // clamp to the floor plane
//
// Constraint multipliers persist across iterations and across steps unless
// the body was built with [ResetLambdaPerStep].
//
// # Energy
//
// XPBD with compliance > 0 is dissipative under few iterations; use the
// metrics package to watch kinetic energy and stretch over a run.
package physics
