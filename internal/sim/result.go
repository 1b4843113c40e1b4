package sim

import (
	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// TimeSeries holds the sampled trajectory as parallel channels of equal length.
type TimeSeries struct {
	T []float64 `json:"t"`
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
	U []float64 `json:"u"`
}

func newTimeSeries(tr *dynamo.Trajectory) TimeSeries {
	return TimeSeries{
		T: append([]float64(nil), tr.Times...),
		X: tr.Channel(physics.Defender),
		Y: tr.Channel(physics.Attacker),
		Z: tr.Channel(physics.Vulnerability),
		U: tr.Channel(physics.Intelligence),
	}
}

func (ts TimeSeries) Len() int { return len(ts.T) }

// Trajectory rebuilds the sampled states, for results decoded from JSON.
func (ts TimeSeries) Trajectory() *dynamo.Trajectory {
	tr := dynamo.NewTrajectory(len(ts.T))
	for i, t := range ts.T {
		tr.Append(t, dynamo.State{ts.X[i], ts.Y[i], ts.Z[i], ts.U[i]})
	}
	tr.Success = len(ts.T) > 0
	return tr
}

type FinalState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	U float64 `json:"u"`
}

func (f FinalState) State() dynamo.State { return dynamo.State{f.X, f.Y, f.Z, f.U} }

// SolverStats reports the work done by the integrator.
type SolverStats struct {
	Evaluations    int `json:"function_evaluations"`
	Steps          int `json:"steps"`
	Rejected       int `json:"rejected_steps"`
	Jacobians      int `json:"jacobian_evaluations"`
	Factorizations int `json:"lu_decompositions"`
}

type Metadata struct {
	SimulationTime float64     `json:"simulation_time"`
	Resolution     float64     `json:"resolution"`
	SolverMethod   string      `json:"solver_method"`
	SolverSuccess  bool        `json:"solver_success"`
	SolverMessage  string      `json:"solver_message"`
	DataPoints     int         `json:"data_points"`
	FinalState     FinalState  `json:"final_state"`
	Stats          SolverStats `json:"solver_stats"`
	Warnings       []string    `json:"warnings,omitempty"`
	ElapsedMillis  float64     `json:"elapsed_ms"`
}

// Result is the assembled outcome of one run. Trajectory is kept for
// in-process consumers (export, plots) and is not serialized.
type Result struct {
	TimeSeries  TimeSeries            `json:"time_series"`
	Jacobian    [][]float64           `json:"jacobian"`
	Eigenvalues []analysis.Eigenvalue `json:"eigenvalues"`
	Stability   analysis.Stability    `json:"stability"`
	Parameters  Request               `json:"parameters"`
	Metadata    Metadata              `json:"metadata"`

	Trajectory *dynamo.Trajectory `json:"-"`
}
