package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// Radau IIA, 3 stages, order 5.
var (
	radauS6 = math.Sqrt(6)

	radauC = [3]float64{(4 - radauS6) / 10, (4 + radauS6) / 10, 1}

	radauA = [3][3]float64{
		{(88 - 7*radauS6) / 360, (296 - 169*radauS6) / 1800, (-2 + 3*radauS6) / 225},
		{(296 + 169*radauS6) / 1800, (88 + 7*radauS6) / 360, (-2 - 3*radauS6) / 225},
		{(16 - radauS6) / 36, (16 + radauS6) / 36, 1.0 / 9},
	}

	// error estimator weights
	radauE = [3]float64{(-13 - 7*radauS6) / 3, (-13 + 7*radauS6) / 3, -1.0 / 3}

	radauMuReal = 3 + math.Cbrt(9) - math.Cbrt(3)

	// TI maps stage increments Z to the eigen-coordinates of A^-1 in which
	// convergence is measured.
	radauTI = [3][3]float64{
		{4.17871859155190428, 0.32768282076106237, 0.52337644549944951},
		{-4.17871859155190428, -0.32768282076106237, 0.47662355450055044},
		{0.50287263494578682, -2.57192694985560522, 0.59603920482822492},
	}

	// continuous extension used to predict the next step's stages
	radauP = [3][3]float64{
		{13.0/3 + 7*radauS6/3, -23.0/3 - 22*radauS6/3, 10.0/3 + 5*radauS6},
		{13.0/3 - 7*radauS6/3, -23.0/3 + 22*radauS6/3, 10.0/3 - 5*radauS6},
		{1.0 / 3, -8.0 / 3, 10.0 / 3},
	}
)

const radauNewtonMaxIter = 6

type radau struct {
	p         *problem
	tol       dynamo.Tolerances
	maxStep   float64
	newtonTol float64

	t, tOld    float64
	y, yOld, f []float64
	hAbs       float64
	hAbsOld    float64
	errOld     float64 // <0 when unknown

	j          *mat.Dense
	currentJac bool
	luStage    *mat.LU // I - h(A⊗J)
	luErr      *mat.LU // (mu/h)I - J
	luH        float64

	q [][]float64 // dense output coefficients of the last step, nil before it

	steps    int
	rejected int
}

func newRadau() *radau { return &radau{} }

func (r *radau) init(p *problem, t0, tEnd float64, y0 []float64, maxStep float64, tol dynamo.Tolerances) error {
	r.p = p
	r.tol = tol
	r.maxStep = maxStep
	r.t = t0
	r.y = y0
	r.f = p.f(t0, y0)
	r.hAbs = selectInitialStep(p, t0, y0, r.f, tEnd-t0, maxStep, 3, tol)
	r.hAbsOld = -1
	r.errOld = -1
	r.newtonTol = math.Max(10*eps/tol.Rel, math.Min(0.03, math.Sqrt(tol.Rel)))
	r.j = p.jacobian(t0, y0)
	r.currentJac = true
	return nil
}

func (r *radau) current() (float64, []float64) { return r.t, r.y }
func (r *radau) counts() (int, int)            { return r.steps, r.rejected }

func (r *radau) factorizeFor(h float64) {
	n := len(r.y)
	big := mat.NewDense(3*n, 3*n, nil)
	for bi := 0; bi < 3; bi++ {
		for bj := 0; bj < 3; bj++ {
			a := r.hA(h, bi, bj)
			for i := 0; i < n; i++ {
				for k := 0; k < n; k++ {
					v := -a * r.j.At(i, k)
					if bi == bj && i == k {
						v += 1
					}
					big.Set(bi*n+i, bj*n+k, v)
				}
			}
		}
	}
	r.luStage = r.p.factorize(big)

	e := mat.NewDense(n, n, nil)
	e.Scale(-1, r.j)
	for i := 0; i < n; i++ {
		e.Set(i, i, e.At(i, i)+radauMuReal/h)
	}
	r.luErr = r.p.factorize(e)
	r.luH = h
}

func (r *radau) hA(h float64, i, j int) float64 { return h * radauA[i][j] }

func (r *radau) invalidate() {
	r.luStage, r.luErr = nil, nil
}

// collocate runs the simplified Newton iteration for the stage increments Z.
func (r *radau) collocate(t, h float64, z0 [][]float64, scale []float64) (converged bool, iters int, z [][]float64, rate float64) {
	n := len(r.y)
	z = [][]float64{clone(z0[0]), clone(z0[1]), clone(z0[2])}
	f := make([][]float64, 3)
	rhs := make([]float64, 3*n)
	dwScaled := make([]float64, 3*n)
	normOld := -1.0
	rate = -1

	for k := 0; k < radauNewtonMaxIter; k++ {
		iters = k + 1
		finite := true
		for i := 0; i < 3; i++ {
			yi := clone(r.y)
			floats.Add(yi, z[i])
			f[i] = r.p.f(t+radauC[i]*h, yi)
			if !allFinite(f[i]) {
				finite = false
			}
		}
		if !finite {
			break
		}

		// rhs = -Z + h (A⊗I) F
		for bi := 0; bi < 3; bi++ {
			for c := 0; c < n; c++ {
				v := -z[bi][c]
				for bj := 0; bj < 3; bj++ {
					v += r.hA(h, bi, bj) * f[bj][c]
				}
				rhs[bi*n+c] = v
			}
		}
		dz, err := luSolve(r.luStage, rhs)
		if err != nil {
			break
		}

		for bi := 0; bi < 3; bi++ {
			for c := 0; c < n; c++ {
				w := 0.0
				for bj := 0; bj < 3; bj++ {
					w += radauTI[bi][bj] * dz[bj*n+c]
				}
				dwScaled[bi*n+c] = w / scale[c]
			}
		}
		dwNorm := rmsNorm(dwScaled)
		if normOld >= 0 {
			rate = dwNorm / normOld
		}
		if rate >= 0 && (rate >= 1 || math.Pow(rate, float64(radauNewtonMaxIter-k))/(1-rate)*dwNorm > r.newtonTol) {
			break
		}

		for bi := 0; bi < 3; bi++ {
			floats.Add(z[bi], dz[bi*n:(bi+1)*n])
		}

		if dwNorm == 0 || (rate >= 0 && rate/(1-rate)*dwNorm < r.newtonTol) {
			converged = true
			break
		}
		normOld = dwNorm
	}
	return converged, iters, z, rate
}

// predict evaluates the previous step's continuous extension at t + h*c_i.
func (r *radau) predict(h float64) [][]float64 {
	n := len(r.y)
	z0 := [][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	if r.q == nil {
		return z0
	}
	hPrev := r.t - r.tOld
	for i := 0; i < 3; i++ {
		x := (r.t + h*radauC[i] - r.tOld) / hPrev
		pw := [3]float64{x, x * x, x * x * x}
		for c := 0; c < n; c++ {
			v := r.yOld[c]
			for k := 0; k < 3; k++ {
				v += r.q[c][k] * pw[k]
			}
			z0[i][c] = v - r.y[c]
		}
	}
	return z0
}

func (r *radau) predictFactor(hAbs, errNorm float64) float64 {
	multiplier := 1.0
	if r.errOld >= 0 && r.hAbsOld > 0 && errNorm != 0 {
		multiplier = hAbs / r.hAbsOld * math.Pow(r.errOld/errNorm, 0.25)
	}
	return math.Min(1, multiplier) * math.Pow(errNorm, -0.25)
}

func (r *radau) step(tBound float64) error {
	t := r.t
	y := r.y
	n := len(y)
	hMin := minStep(t)

	hAbs := r.hAbs
	if hAbs > r.maxStep {
		hAbs = r.maxStep
		r.hAbsOld, r.errOld = -1, -1
	} else if hAbs < hMin {
		hAbs = hMin
		r.hAbsOld, r.errOld = -1, -1
	}

	var (
		z        [][]float64
		yNew     []float64
		errNorm  float64
		iters    int
		rate     float64
		safety   float64
		rejected bool
		proposed float64
		clipped  bool
		tNew     float64
		h        float64
	)

	for {
		if hAbs < hMin {
			return tooSmall()
		}
		proposed = hAbs
		tNew, clipped = clip(t, hAbs, tBound)
		h = tNew - t
		hAbs = math.Abs(h)

		z0 := r.predict(h)
		scale := make([]float64, n)
		for i := range scale {
			scale[i] = r.tol.Abs + math.Abs(y[i])*r.tol.Rel
		}

		converged := false
		for !converged {
			if r.luStage == nil || r.luH != h {
				r.factorizeFor(h)
			}
			converged, iters, z, rate = r.collocate(t, h, z0, scale)
			if !converged {
				if r.currentJac {
					break
				}
				r.j = r.p.jacobian(t, y)
				r.currentJac = true
				r.invalidate()
			}
		}
		if !converged {
			hAbs *= 0.5
			r.invalidate()
			r.rejected++
			continue
		}

		yNew = clone(y)
		floats.Add(yNew, z[2])

		ze := make([]float64, n)
		for i := 0; i < 3; i++ {
			floats.AddScaled(ze, radauE[i]/h, z[i])
		}
		rhs := clone(r.f)
		floats.Add(rhs, ze)
		errVec, err := luSolve(r.luErr, rhs)
		if err != nil {
			return &stepError{msg: err.Error(), err: dynamo.ErrNewtonFailed}
		}
		for i := range scale {
			scale[i] = r.tol.Abs + math.Max(math.Abs(y[i]), math.Abs(yNew[i]))*r.tol.Rel
		}
		errNorm = scaledNorm(errVec, scale)
		safety = 0.9 * float64(2*radauNewtonMaxIter+1) / float64(2*radauNewtonMaxIter+iters)

		if rejected && errNorm > 1 && !math.IsInf(errNorm, 0) {
			yp := clone(y)
			floats.Add(yp, errVec)
			rhs = r.p.f(t, yp)
			floats.Add(rhs, ze)
			if errVec, err = luSolve(r.luErr, rhs); err != nil {
				return &stepError{msg: err.Error(), err: dynamo.ErrNewtonFailed}
			}
			errNorm = scaledNorm(errVec, scale)
		}

		if errNorm > 1 || math.IsNaN(errNorm) {
			factor := r.predictFactor(hAbs, errNorm)
			hAbs *= shrink(safety * factor)
			r.invalidate()
			rejected = true
			r.rejected++
			continue
		}
		break
	}

	recomputeJac := iters > 2 && rate > 1e-3
	factor := math.Min(maxFactor, safety*r.predictFactor(hAbs, errNorm))
	if !recomputeJac && factor < 1.2 {
		factor = 1
	} else {
		r.invalidate()
	}

	fNew := r.p.f(tNew, yNew)
	if recomputeJac {
		r.j = r.p.jacobian(tNew, yNew)
		r.currentJac = true
	} else {
		r.currentJac = false
	}

	r.hAbsOld = r.hAbs
	r.errOld = errNorm
	next := hAbs * factor
	if clipped && factor >= 1 {
		next = math.Max(next, proposed)
	}
	r.hAbs = next
	r.yOld, r.tOld = y, t
	r.t, r.y, r.f = tNew, yNew, fNew
	r.q = radauDense(z, n)
	r.steps++
	return nil
}

// radauDense returns Q = Z^T P, so y(t_old + x*h) = y_old + Q [x x^2 x^3].
func radauDense(z [][]float64, n int) [][]float64 {
	q := make([][]float64, n)
	for c := 0; c < n; c++ {
		q[c] = make([]float64, 3)
		for k := 0; k < 3; k++ {
			for i := 0; i < 3; i++ {
				q[c][k] += z[i][c] * radauP[i][k]
			}
		}
	}
	return q
}

func clone(x []float64) []float64 { return append([]float64(nil), x...) }
