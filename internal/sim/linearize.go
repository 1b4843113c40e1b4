package sim

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// linearize returns df/dx at x. Systems with a closed form supply it; any
// other system gets a central-difference estimate of its vector field.
func linearize(sys dynamo.System, x dynamo.State) [][]float64 {
	if l, ok := sys.(dynamo.Linearizable); ok {
		return l.Jacobian(x)
	}
	n := sys.StateDim()
	dst := mat.NewDense(n, n, nil)
	fd.Jacobian(dst, func(out, y []float64) {
		copy(out, sys.Derive(dynamo.State(y), nil, 0))
	}, x, &fd.JacobianSettings{Formula: fd.Central})

	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = mat.Row(nil, i, dst)
	}
	return jac
}
