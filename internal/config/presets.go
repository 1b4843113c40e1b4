package config

import (
	"sort"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// Scenario is a named, complete simulation setup.
type Scenario struct {
	Key             string         `json:"key" yaml:"key"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	ExpectedOutcome string         `json:"expected_outcome" yaml:"expected_outcome"`
	Controls        Controls       `json:"controls" yaml:"controls"`
	Params          physics.Params `json:"parameters" yaml:"parameters"`
	Initial         [4]float64     `json:"initial_state" yaml:"initial_state"`
	TimeSpan        float64        `json:"time_span" yaml:"time_span"`
	Resolution      float64        `json:"resolution" yaml:"resolution"`
	SolverMethod    string         `json:"solver_method" yaml:"solver_method"`
}

func (s *Scenario) InitialState() dynamo.State {
	return dynamo.State{s.Initial[0], s.Initial[1], s.Initial[2], s.Initial[3]}
}

var Presets = map[string]*Scenario{
	"balanced": {
		Name:            "Balanced Cyber Conflict",
		Description:     "A typical cyber conflict scenario with balanced attacker and defender capabilities",
		ExpectedOutcome: "Stable node - system reaches equilibrium",
		Controls:        Controls{ConflictIntensity: 0.5, DefenderAdvantage: 0.5, SystemResilience: 0.5},
		Params:          physics.DefaultParams(),
		Initial:         [4]float64{100, 50, 30, 20},
		TimeSpan:        24,
	},
	"apt": {
		Name:            "Advanced Persistent Threat",
		Description:     "Sophisticated, long-term attack campaign with adaptive adversary",
		ExpectedOutcome: "Unstable or saddle point - persistent threat",
		Controls:        Controls{ConflictIntensity: 0.8, DefenderAdvantage: 0.3, SystemResilience: 0.4},
		Params: physics.Params{
			Alpha: 0.08, Beta: 0.04, Gamma: 0.12, Delta: 0.025, Epsilon: 0.03, Eta: 0.015, Theta: 0.05,
			Lambda: 0.03, Mu: 0.01, Nu: 0.03, Xi: 0.04, Rho: 0.015, Sigma: 0.02,
		},
		Initial:  [4]float64{80, 60, 45, 15},
		TimeSpan: 48,
	},
	"effectiveIntelligence": {
		Name:            "Effective Threat Intelligence",
		Description:     "Scenario where threat intelligence significantly improves defensive capabilities",
		ExpectedOutcome: "Stable node - defenders dominate",
		Controls:        Controls{ConflictIntensity: 0.6, DefenderAdvantage: 0.7, SystemResilience: 0.8},
		Params: physics.Params{
			Alpha: 0.12, Beta: 0.015, Gamma: 0.06, Delta: 0.01, Epsilon: 0.008, Eta: 0.04, Theta: 0.025,
			Lambda: 0.08, Mu: 0.03, Nu: 0.08, Xi: 0.02, Rho: 0.05, Sigma: 0.03,
		},
		Initial:  [4]float64{90, 40, 25, 35},
		TimeSpan: 24,
	},
	"systemHardening": {
		Name:            "System Hardening Success",
		Description:     "Effective vulnerability management and system hardening",
		ExpectedOutcome: "Stable node - highly secure system",
		Controls:        Controls{ConflictIntensity: 0.4, DefenderAdvantage: 0.6, SystemResilience: 0.9},
		Params: physics.Params{
			Alpha: 0.1, Beta: 0.01, Gamma: 0.05, Delta: 0.005, Epsilon: 0.005, Eta: 0.03, Theta: 0.02,
			Lambda: 0.1, Mu: 0.05, Nu: 0.05, Xi: 0.025, Rho: 0.025, Sigma: 0.015,
		},
		Initial:  [4]float64{110, 35, 15, 25},
		TimeSpan: 24,
	},
	"defensiveFailure": {
		Name:            "Defensive Failure",
		Description:     "Scenario where defensive measures fail and attackers dominate",
		ExpectedOutcome: "Unstable system - attacker dominance",
		Controls:        Controls{ConflictIntensity: 0.9, DefenderAdvantage: 0.2, SystemResilience: 0.3},
		Params: physics.Params{
			Alpha: 0.05, Beta: 0.06, Gamma: 0.15, Delta: 0.04, Epsilon: 0.05, Eta: 0.01, Theta: 0.08,
			Lambda: 0.02, Mu: 0.005, Nu: 0.02, Xi: 0.06, Rho: 0.005, Sigma: 0.005,
		},
		Initial:  [4]float64{60, 80, 60, 10},
		TimeSpan: 24,
	},
	"oscillatingConflict": {
		Name:            "Oscillating Cyber Conflict",
		Description:     "Cyclic conflict where advantage shifts between attackers and defenders",
		ExpectedOutcome: "Spiral behavior - oscillating conflict",
		Controls:        Controls{ConflictIntensity: 0.7, DefenderAdvantage: 0.5, SystemResilience: 0.6},
		Params: physics.Params{
			Alpha: 0.12, Beta: 0.08, Gamma: 0.1, Delta: 0.02, Epsilon: 0.02, Eta: 0.06, Theta: 0.04,
			Lambda: 0.06, Mu: 0.02, Nu: 0.06, Xi: 0.03, Rho: 0.04, Sigma: 0.025,
		},
		Initial:  [4]float64{100, 50, 30, 20},
		TimeSpan: 48,
	},
}

func init() {
	for key, s := range Presets {
		s.Key = key
		s.Resolution = DefaultResolution
		s.SolverMethod = DefaultSolverMethod
	}
}

// GetPreset returns a copy of the named scenario, or nil.
func GetPreset(name string) *Scenario {
	s, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *s
	return &c
}

// ListPresets returns the preset keys in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
