package config

import (
	"fmt"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// Controls are three high-level dials in [0, 1], each driving several
// coefficients at once.
type Controls struct {
	ConflictIntensity float64 `json:"conflict_intensity" yaml:"conflict_intensity"`
	DefenderAdvantage float64 `json:"defender_advantage" yaml:"defender_advantage"`
	SystemResilience  float64 `json:"system_resilience" yaml:"system_resilience"`
}

// DefaultControls puts every dial at its midpoint.
func DefaultControls() Controls {
	return Controls{ConflictIntensity: 0.5, DefenderAdvantage: 0.5, SystemResilience: 0.5}
}

func (c Controls) Validate() error {
	dials := []struct {
		name  string
		value float64
	}{
		{"conflict_intensity", c.ConflictIntensity},
		{"defender_advantage", c.DefenderAdvantage},
		{"system_resilience", c.SystemResilience},
	}
	for _, d := range dials {
		if !(d.value >= 0 && d.value <= 1) {
			return dynamo.Invalid(d.name, "must be within [0, 1], got %g", d.value)
		}
	}
	return nil
}

// ApplyConflictIntensity scales the interaction strengths.
func ApplyConflictIntensity(p physics.Params, i float64) physics.Params {
	p.Beta = 0.01 + i*0.05
	p.Eta = 0.015 + i*0.035
	p.Theta = 0.02 + i*0.06
	p.Lambda = 0.03 + i*0.05
	return p
}

func ApplyDefenderAdvantage(p physics.Params, a float64) physics.Params {
	p.Alpha = 0.05 + a*0.1
	p.Gamma = 0.12 - a*0.08
	p.Eta = 0.01 + a*0.04
	p.Sigma = 0.005 + a*0.025
	return p
}

func ApplySystemResilience(p physics.Params, r float64) physics.Params {
	p.Mu = 0.01 + r*0.04
	p.Nu = 0.02 + r*0.06
	p.Xi = 0.05 - r*0.02
	p.Rho = 0.01 + r*0.04
	p.Lambda = 0.03 + r*0.05
	return p
}

// Apply runs the three mappings in order; where two touch the same
// coefficient the later one wins.
func (c Controls) Apply(p physics.Params) (physics.Params, error) {
	if err := c.Validate(); err != nil {
		return p, fmt.Errorf("controls: %w", err)
	}
	p = ApplyConflictIntensity(p, c.ConflictIntensity)
	p = ApplyDefenderAdvantage(p, c.DefenderAdvantage)
	p = ApplySystemResilience(p, c.SystemResilience)
	return p, nil
}
