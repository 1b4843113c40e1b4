// Package physics provides the cyber-conflict dynamical model.
//
// [CyberWar] implements [dynamo.System] for the four-variable system
//
//	dx/dt = αx + ρu − βxy − δxz
//	dy/dt = γy + εyz − ηxy − σuy
//	dz/dt = θy − λx − μz
//	du/dt = νx − ξu
//
// where x is defender capability, y attacker capability, z system
// vulnerability and u threat intelligence. Derive clamps each component to
// zero from below before evaluating; Jacobian uses the raw state.
//
// The model also implements [dynamo.Linearizable] and [dynamo.Configurable]:
//
//	model := physics.NewCyberWar(physics.DefaultParams())
//	j := model.Jacobian(state)
//	_ = model.SetParam("beta", 0.03)
package physics
