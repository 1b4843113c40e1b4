package metrics

import (
	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// NegativeExcursions counts samples where the propagated state left the
// non-negative orthant. The vector field only ever sees clamped values, so
// such samples are possible and harmless, but worth reporting.
type NegativeExcursions struct {
	name       string
	violations int
	samples    int
}

func NewNegativeExcursions() *NegativeExcursions {
	return &NegativeExcursions{name: "negative_excursions"}
}

func (n *NegativeExcursions) Name() string { return n.name }

func (n *NegativeExcursions) Observe(x dynamo.State, u dynamo.Control, t float64) {
	n.samples++
	for _, val := range x {
		if val < 0 {
			n.violations++
			break
		}
	}
}

// Value is the fraction of samples that stayed non-negative.
func (n *NegativeExcursions) Value() float64 {
	if n.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(n.violations)/float64(n.samples)
}

func (n *NegativeExcursions) Count() int { return n.violations }

func (n *NegativeExcursions) Reset() {
	n.violations = 0
	n.samples = 0
}
