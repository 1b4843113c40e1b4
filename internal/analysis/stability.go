package analysis

import "math"

// Stability is a qualitative label for the linearisation at a state.
type Stability string

const (
	StableNode      Stability = "stable node"
	UnstableNode    Stability = "unstable node"
	SaddlePoint     Stability = "saddle point"
	DegenerateCase  Stability = "degenerate case"
	SpiralSink      Stability = "spiral sink"
	SpiralSource    Stability = "spiral source"
	Center          Stability = "center"
	SpiralSaddle    Stability = "spiral saddle"
	ComplexBehavior Stability = "complex behavior"
)

// Labels lists every label Classify can return.
var Labels = []Stability{
	StableNode, UnstableNode, SaddlePoint, DegenerateCase,
	SpiralSink, SpiralSource, Center, SpiralSaddle, ComplexBehavior,
}

// Classify maps an eigenvalue set to a label. Real-part sign checks run before
// the center check and mixed signs are tested before the catch-all, so
// boundary cases near Tolerance resolve the same way every time. The result
// depends only on the multiset of values.
func Classify(vals []Eigenvalue) Stability {
	allReal, allNeg, allPos, allZero := true, true, true, true
	hasNeg, hasPos := false, false

	for _, v := range vals {
		if math.Abs(v.Imag) >= Tolerance {
			allReal = false
		}
		if v.Real < -Tolerance {
			hasNeg = true
		} else {
			allNeg = false
		}
		if v.Real > Tolerance {
			hasPos = true
		} else {
			allPos = false
		}
		if math.Abs(v.Real) >= Tolerance {
			allZero = false
		}
	}
	mixed := hasNeg && hasPos

	if allReal {
		switch {
		case allNeg:
			return StableNode
		case allPos:
			return UnstableNode
		case mixed:
			return SaddlePoint
		default:
			return DegenerateCase
		}
	}

	switch {
	case allNeg:
		return SpiralSink
	case allPos:
		return SpiralSource
	case allZero:
		return Center
	case mixed:
		return SpiralSaddle
	default:
		return ComplexBehavior
	}
}

// Stable reports whether every trajectory near the state decays towards it.
func (s Stability) Stable() bool {
	return s == StableNode || s == SpiralSink
}
