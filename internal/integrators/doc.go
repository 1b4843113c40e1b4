// Package integrators provides the adaptive ODE solvers behind a simulation.
//
// Five methods are registered under canonical names with short aliases:
// Dormand-Prince 5(4) and 8(5,3), Radau IIA, variable-order BDF, and an
// LSODA-style switcher between Dormand-Prince and BDF. Every solver samples the
// trajectory on the grid 0, h, 2h, ... of a [dynamo.Span] and checks the
// context between internal steps.
//
// # Non-smooth vector fields
//
// The cyber-conflict model clamps each state component at zero before
// evaluating, so its vector field has a kink wherever a channel reaches zero.
// Radau's error estimate reacts badly to that kink: on the default scenario
// over a week at h=1, nearly all of its steps and rejections fall in the last
// dozen hours, where the attacker channel sits on the clamp. BDF crosses the
// same stretch in a few thousand steps. BenchmarkRadau_ClampKink tracks this.
package integrators
