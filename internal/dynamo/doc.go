// Package dynamo provides core simulation primitives for the cyber-conflict
// dynamical system.
//
// The package defines the fundamental interfaces and types shared by the
// model, the solvers and the orchestrator:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Linearizable]: systems with a closed-form Jacobian
//   - [Configurable]: systems with named, settable coefficients
//   - [Trajectory]: sampled solution returned by a solver
//   - [ValidationError], [SolverError], [SimulationError], [InternalError]:
//     the error taxonomy surfaced to callers
//
// # Example
//
//	model := physics.NewCyberWar(physics.DefaultParams())
//	solver, _ := integrators.New("explicit-RK45")
//	traj, err := solver.Integrate(ctx, model, x0, span, dynamo.DefaultTolerances())
//
// # Thread Safety
//
// Values in this package are plain data. A Trajectory must not be appended to
// from more than one goroutine.
package dynamo
