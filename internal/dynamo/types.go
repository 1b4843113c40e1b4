package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is kept in the signature for systems driven by an input.
// The cyber-conflict model is autonomous and always receives nil.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Linearizable systems expose a closed-form Jacobian df/dx.
type Linearizable interface {
	Jacobian(x State) [][]float64
}

// Configurable systems expose their coefficients by name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Span is the closed integration interval [T0, T1] sampled every Resolution.
type Span struct {
	T0         float64
	T1         float64
	Resolution float64
}

type Tolerances struct {
	Abs float64
	Rel float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{Abs: 1e-10, Rel: 1e-8}
}

// Trajectory holds samples at strictly increasing times.
type Trajectory struct {
	Times  []float64
	States []State

	Success bool
	Message string

	Evaluations    int
	Steps          int
	Rejected       int
	Jacobians      int
	Factorizations int
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{
		Times:  make([]float64, 0, capacity),
		States: make([]State, 0, capacity),
	}
}

func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Channel extracts component i across all samples.
func (tr *Trajectory) Channel(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}
