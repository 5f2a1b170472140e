// Package dynamo provides the shared data model for integrating vector fields.
//
// The package defines the types exchanged between the field registry, the
// integrator and every consumer of a result:
//
//   - [State]: vector representing system state
//   - [Params]: named parameter values for one integration
//   - [Field]: interface for ODE systems (dX/dt = f(X, t; p))
//   - [Trajectory]: one state per requested output time
//   - [StepObserver]: hook notified of every attempted step
//
// Errors are exposed both as sentinels (for [errors.Is]) and as typed values
// carrying context (for [errors.As]):
//
//	_, err := integrators.Integrate(ctx, field, x0, grid, params)
//	var nf *dynamo.NonFiniteStateError
//	if errors.As(err, &nf) {
//	    log.Printf("diverged at t=%g", nf.Time)
//	}
//
// # Thread Safety
//
// Fields are immutable and may be shared. Trajectories belong to the caller
// that requested them.
package dynamo
