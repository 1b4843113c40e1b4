package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// Limits on the run configuration.
const (
	MaxTimeSpan   = 168.0
	MaxResolution = 1.0

	// preflight heuristics; exceeding them only produces a warning
	interactionWarnLimit = 1000.0
	stepCountWarnLimit   = 10000.0
)

// Request is one simulation as submitted by a caller. The coefficients are
// flattened into the top level, so a JSON body reads
// {"alpha": .1, ..., "x0": 100, "time_span": 24, "solver_method": "RK45"}.
type Request struct {
	physics.Params `yaml:",inline"`

	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	Z0 float64 `json:"z0" yaml:"z0"`
	U0 float64 `json:"u0" yaml:"u0"`

	TimeSpan     float64 `json:"time_span" yaml:"time_span"`
	Resolution   float64 `json:"resolution" yaml:"resolution"`
	SolverMethod string  `json:"solver_method" yaml:"solver_method"`
}

func DefaultRequest() Request {
	x0 := physics.DefaultInitialState()
	return Request{
		Params:       physics.DefaultParams(),
		X0:           x0[physics.Defender],
		Y0:           x0[physics.Attacker],
		Z0:           x0[physics.Vulnerability],
		U0:           x0[physics.Intelligence],
		TimeSpan:     config.DefaultTimeSpan,
		Resolution:   config.DefaultResolution,
		SolverMethod: config.DefaultSolverMethod,
	}
}

// FromScenario builds a request from a preset.
func FromScenario(s *config.Scenario) Request {
	r := Request{
		Params:       s.Params,
		X0:           s.Initial[physics.Defender],
		Y0:           s.Initial[physics.Attacker],
		Z0:           s.Initial[physics.Vulnerability],
		U0:           s.Initial[physics.Intelligence],
		TimeSpan:     s.TimeSpan,
		Resolution:   s.Resolution,
		SolverMethod: s.SolverMethod,
	}
	if r.Resolution == 0 {
		r.Resolution = config.DefaultResolution
	}
	if r.SolverMethod == "" {
		r.SolverMethod = config.DefaultSolverMethod
	}
	return r
}

func (r Request) InitialState() dynamo.State {
	return dynamo.State{r.X0, r.Y0, r.Z0, r.U0}
}

func (r Request) Span() dynamo.Span {
	return dynamo.Span{T0: 0, T1: r.TimeSpan, Resolution: r.Resolution}
}

// Validate returns a *dynamo.ValidationError naming the first offending field.
func (r Request) Validate() error {
	if err := r.Params.Validate(); err != nil {
		return err
	}
	initial := []struct {
		name  string
		value float64
	}{{"x0", r.X0}, {"y0", r.Y0}, {"z0", r.Z0}, {"u0", r.U0}}
	for _, v := range initial {
		if !positive(v.value) {
			return dynamo.Invalid(v.name, "must be a finite value greater than 0, got %g", v.value)
		}
	}

	if !positive(r.TimeSpan) {
		return dynamo.Invalid("time_span", "must be a finite value greater than 0, got %g", r.TimeSpan)
	}
	if r.TimeSpan > MaxTimeSpan {
		return dynamo.Invalid("time_span", "must be at most %g hours, got %g", MaxTimeSpan, r.TimeSpan)
	}
	if !positive(r.Resolution) {
		return dynamo.Invalid("resolution", "must be a finite value greater than 0, got %g", r.Resolution)
	}
	if r.Resolution > MaxResolution {
		return dynamo.Invalid("resolution", "must be at most %g, got %g", MaxResolution, r.Resolution)
	}
	if r.Resolution > r.TimeSpan/10 {
		return dynamo.Invalid("resolution", "too coarse for time span (max %g)", r.TimeSpan/10)
	}
	if _, ok := integrators.Canonical(r.SolverMethod); !ok {
		return dynamo.Invalid("solver_method", "must be one of %v, got %q", integrators.Methods(), r.SolverMethod)
	}
	return nil
}

// Warnings lists the advisory preflight findings for r. They never block a run.
func (r Request) Warnings() []string {
	var out []string
	if r.Beta*r.X0*r.Y0 > interactionWarnLimit {
		out = append(out, "High interaction terms may cause numerical instability")
	}
	if r.TimeSpan/r.Resolution > stepCountWarnLimit {
		out = append(out, fmt.Sprintf("Very fine resolution may cause performance issues (%.0f samples)", r.TimeSpan/r.Resolution))
	}
	return out
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
