// Package analysis turns a finished trajectory into qualitative answers.
//
//   - [Eigenvalues]: spectrum of the Jacobian at the final state
//   - [Classify]: one of nine stability labels from that spectrum
//   - [NewPhasePortrait]: two-channel phase space view of a trajectory
//   - [DominantPeriod]: strongest oscillation period of a sampled channel
//
// # Local Stability
//
// The classification is local: it describes the linearisation at the state
// the trajectory ended in, not the global behaviour of the system.
//
//	vals, err := analysis.Eigenvalues(sys.Jacobian(traj.Final()))
//	if err != nil {
//	    return err
//	}
//	label := analysis.Classify(vals) // e.g. "spiral sink"
package analysis
