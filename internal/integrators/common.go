package integrators

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

const (
	safetyFactor = 0.9
	minFactor    = 0.2
	maxFactor    = 10.0

	msgStepTooSmall = "Required step size is less than spacing between numbers."
)

// eps is the float64 machine epsilon.
var eps = math.Nextafter(1, 2) - 1

// problem wraps a System as an autonomous-looking f(t, y) and counts work.
type problem struct {
	sys  dynamo.System
	nfev int
	njev int
	nlu  int
}

func (p *problem) f(t float64, y []float64) []float64 {
	p.nfev++
	return p.sys.Derive(dynamo.State(y), nil, t)
}

// jacobian approximates df/dy by central differences of the vector field as the
// solver sees it, clamp included.
func (p *problem) jacobian(t float64, y []float64) *mat.Dense {
	p.njev++
	n := len(y)
	dst := mat.NewDense(n, n, nil)
	fd.Jacobian(dst, func(out, x []float64) {
		p.nfev++
		copy(out, p.sys.Derive(dynamo.State(x), nil, t))
	}, y, &fd.JacobianSettings{
		Formula: fd.Central,
	})
	return dst
}

// factorize LU-decomposes a Newton iteration matrix.
func (p *problem) factorize(a *mat.Dense) *mat.LU {
	p.nlu++
	var lu mat.LU
	lu.Factorize(a)
	return &lu
}

// luSolve solves A x = b. An ill-conditioned factorization still yields a
// solution; non-finite results are rejected by the callers' norm checks.
func luSolve(lu *mat.LU, b []float64) ([]float64, error) {
	n := len(b)
	dst := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(dst, false, mat.NewVecDense(n, b)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return dst.RawVector().Data, nil
}

// rmsNorm is ||x||_2 / sqrt(len(x)).
func rmsNorm(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 2) / math.Sqrt(float64(len(x)))
}

// scaledNorm is rmsNorm(x / scale).
func scaledNorm(x, scale []float64) float64 {
	tmp := make([]float64, len(x))
	floats.DivTo(tmp, x, scale)
	return rmsNorm(tmp)
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// clip ends a step of size hAbs from t at tBound when it would overshoot or
// leave a negligible remainder.
func clip(t, hAbs, tBound float64) (tNew float64, clipped bool) {
	tNew = t + hAbs
	if tNew > tBound || tBound-tNew <= 1e-6*hAbs {
		return tBound, true
	}
	return tNew, false
}

// shrink is the step factor after a rejected step. A NaN error norm counts
// as a maximal rejection.
func shrink(f float64) float64 {
	if !(f > minFactor) {
		return minFactor
	}
	return f
}

// minStep is ten ulps at t.
func minStep(t float64) float64 {
	return 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
}

// selectInitialStep estimates a first step from the local derivative scale
// (Hairer, Norsett and Wanner, section II.4).
func selectInitialStep(p *problem, t0 float64, y0, f0 []float64, interval, maxStep float64, order int, tol dynamo.Tolerances) float64 {
	n := len(y0)
	if n == 0 {
		return math.Inf(1)
	}
	if interval == 0 {
		return 0
	}
	scale := make([]float64, n)
	for i := range y0 {
		scale[i] = tol.Abs + math.Abs(y0[i])*tol.Rel
	}
	d0 := scaledNorm(y0, scale)
	d1 := scaledNorm(f0, scale)

	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, interval)

	y1 := make([]float64, n)
	floats.AddScaledTo(y1, y0, h0, f0)
	f1 := p.f(t0+h0, y1)

	diff := make([]float64, n)
	floats.SubTo(diff, f1, f0)
	d2 := scaledNorm(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/float64(order+1))
	}
	return math.Min(math.Min(100*h0, h1), math.Min(interval, maxStep))
}
