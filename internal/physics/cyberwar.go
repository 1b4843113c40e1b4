package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// State component indices.
const (
	Defender      = 0 // x
	Attacker      = 1 // y
	Vulnerability = 2 // z
	Intelligence  = 3 // u
)

var ChannelNames = [4]string{"x", "y", "z", "u"}

var ChannelLabels = [4]string{
	"Defender Capability",
	"Attacker Capability",
	"System Vulnerability",
	"Threat Intelligence",
}

// Params is the 13-coefficient parameter set. It is passed by value so a run
// can never observe a mutation made after it started.
type Params struct {
	Alpha   float64 `json:"alpha" yaml:"alpha"`     // defender growth
	Beta    float64 `json:"beta" yaml:"beta"`       // defender-attacker interaction
	Gamma   float64 `json:"gamma" yaml:"gamma"`     // attacker growth
	Delta   float64 `json:"delta" yaml:"delta"`     // defender-vulnerability interaction
	Epsilon float64 `json:"epsilon" yaml:"epsilon"` // attacker-vulnerability synergy
	Eta     float64 `json:"eta" yaml:"eta"`         // attacker-defender conflict
	Theta   float64 `json:"theta" yaml:"theta"`     // vulnerability generation by attackers
	Lambda  float64 `json:"lambda" yaml:"lambda"`   // vulnerability mitigation by defenders
	Mu      float64 `json:"mu" yaml:"mu"`           // vulnerability decay
	Nu      float64 `json:"nu" yaml:"nu"`           // intelligence generation by defenders
	Xi      float64 `json:"xi" yaml:"xi"`           // intelligence decay
	Rho     float64 `json:"rho" yaml:"rho"`         // intelligence-defender synergy
	Sigma   float64 `json:"sigma" yaml:"sigma"`     // intelligence-attacker counter
}

func DefaultParams() Params {
	return Params{
		Alpha:   0.1,
		Beta:    0.02,
		Gamma:   0.08,
		Delta:   0.015,
		Epsilon: 0.01,
		Eta:     0.025,
		Theta:   0.03,
		Lambda:  0.05,
		Mu:      0.02,
		Nu:      0.04,
		Xi:      0.03,
		Rho:     0.02,
		Sigma:   0.01,
	}
}

// DefaultInitialState is (x0, y0, z0, u0) = (100, 50, 30, 20).
func DefaultInitialState() dynamo.State {
	return dynamo.State{100, 50, 30, 20}
}

func (p *Params) fields() map[string]*float64 {
	return map[string]*float64{
		"alpha": &p.Alpha, "beta": &p.Beta, "gamma": &p.Gamma, "delta": &p.Delta,
		"epsilon": &p.Epsilon, "eta": &p.Eta, "theta": &p.Theta, "lambda": &p.Lambda,
		"mu": &p.Mu, "nu": &p.Nu, "xi": &p.Xi, "rho": &p.Rho, "sigma": &p.Sigma,
	}
}

// ParamNames lists the coefficient names in a stable order.
func ParamNames() []string {
	return []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "eta", "theta",
		"lambda", "mu", "nu", "xi", "rho", "sigma",
	}
}

func (p Params) Map() map[string]float64 {
	out := make(map[string]float64, 13)
	for name, v := range p.fields() {
		out[name] = *v
	}
	return out
}

// With returns a copy with one coefficient replaced.
func (p Params) With(name string, value float64) (Params, error) {
	f, ok := p.fields()[name]
	if !ok {
		return p, fmt.Errorf("unknown parameter: %s", name)
	}
	*f = value
	return p, nil
}

// Validate reports the first coefficient that is not finite and strictly positive.
func (p Params) Validate() error {
	m := p.Map()
	for _, name := range ParamNames() {
		v := m[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return dynamo.Invalid(name, "must be a finite value greater than 0, got %g", v)
		}
	}
	return nil
}

// CyberWar is the four-variable defender/attacker/vulnerability/intelligence
// conflict model.
type CyberWar struct {
	p Params
}

func NewCyberWar(p Params) *CyberWar { return &CyberWar{p: p} }

func (c *CyberWar) StateDim() int   { return 4 }
func (c *CyberWar) ControlDim() int { return 0 }
func (c *CyberWar) Params() Params  { return c.p }

// Derive evaluates the vector field. Components are clamped to >= 0 for the
// evaluation only; the caller's state is never modified.
func (c *CyberWar) Derive(s dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	p := &c.p
	x, y, z, u := math.Max(s[0], 0), math.Max(s[1], 0), math.Max(s[2], 0), math.Max(s[3], 0)
	return dynamo.State{
		p.Alpha*x + p.Rho*u - p.Beta*x*y - p.Delta*x*z,
		p.Gamma*y + p.Epsilon*y*z - p.Eta*x*y - p.Sigma*u*y,
		p.Theta*y - p.Lambda*x - p.Mu*z,
		p.Nu*x - p.Xi*u,
	}
}

// Jacobian is the analytic df/dx evaluated at the raw (unclamped) state.
func (c *CyberWar) Jacobian(s dynamo.State) [][]float64 {
	p := &c.p
	x, y, z, u := s[0], s[1], s[2], s[3]
	return [][]float64{
		{p.Alpha - p.Beta*y - p.Delta*z, -p.Beta * x, -p.Delta * x, p.Rho},
		{-p.Eta * y, p.Gamma + p.Epsilon*z - p.Eta*x - p.Sigma*u, p.Epsilon * y, -p.Sigma * y},
		{-p.Lambda, p.Theta, -p.Mu, 0},
		{p.Nu, 0, 0, -p.Xi},
	}
}

func (c *CyberWar) GetParams() map[string]float64 { return c.p.Map() }

func (c *CyberWar) SetParam(name string, value float64) error {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return dynamo.Invalid(name, "must be a finite value greater than 0, got %g", value)
	}
	p, err := c.p.With(name, value)
	if err != nil {
		return err
	}
	c.p = p
	return nil
}
