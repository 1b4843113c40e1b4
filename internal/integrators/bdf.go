package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// Variable-order (1..5) numerical differentiation formulas in backward
// difference form (Shampine and Reichelt, ode15s).
const (
	bdfMaxOrder      = 5
	bdfNewtonMaxIter = 4
)

var (
	bdfKappa = [bdfMaxOrder + 1]float64{0, -0.1850, -1.0 / 9, -0.0823, -0.0415, 0}

	bdfGamma, bdfAlpha, bdfErrorConst = func() (g, a, e [bdfMaxOrder + 1]float64) {
		for k := 1; k <= bdfMaxOrder; k++ {
			g[k] = g[k-1] + 1/float64(k)
		}
		for k := 0; k <= bdfMaxOrder; k++ {
			a[k] = (1 - bdfKappa[k]) * g[k]
			e[k] = bdfKappa[k]*g[k] + 1/float64(k+1)
		}
		return g, a, e
	}()
)

// bdfR builds the order+1 square matrix that rescales a difference array
// from step h to factor*h.
func bdfR(order int, factor float64) *mat.Dense {
	m := mat.NewDense(order+1, order+1, nil)
	for j := 0; j <= order; j++ {
		m.Set(0, j, 1)
	}
	for i := 1; i <= order; i++ {
		for j := 1; j <= order; j++ {
			m.Set(i, j, (float64(i)-1-factor*float64(j))/float64(i))
		}
	}
	// cumulative product down each column
	for i := 1; i <= order; i++ {
		for j := 0; j <= order; j++ {
			m.Set(i, j, m.At(i, j)*m.At(i-1, j))
		}
	}
	return m
}

// changeD rescales the first order+1 rows of d for a step change by factor.
func changeD(d [][]float64, order int, factor float64) {
	r := bdfR(order, factor)
	u := bdfR(order, 1)
	var ru mat.Dense
	ru.Mul(r, u)

	n := len(d[0])
	next := make([][]float64, order+1)
	for i := 0; i <= order; i++ {
		next[i] = make([]float64, n)
		for k := 0; k <= order; k++ {
			if w := ru.At(k, i); w != 0 {
				floats.AddScaled(next[i], w, d[k])
			}
		}
	}
	for i := 0; i <= order; i++ {
		copy(d[i], next[i])
	}
}

type bdf struct {
	p         *problem
	tol       dynamo.Tolerances
	maxStep   float64
	newtonTol float64

	t    float64
	y    []float64
	hAbs float64

	d          [][]float64
	order      int
	equalSteps int
	j          *mat.Dense
	lu         *mat.LU
	luC        float64
	// lastNorm is h*||J||_inf after the last accepted step.
	lastNorm float64

	steps    int
	rejected int
}

func newBDF() *bdf { return &bdf{} }

func (b *bdf) init(p *problem, t0, tEnd float64, y0 []float64, maxStep float64, tol dynamo.Tolerances) error {
	f := p.f(t0, y0)
	h := selectInitialStep(p, t0, y0, f, tEnd-t0, maxStep, 1, tol)
	b.setup(p, t0, y0, f, h, maxStep, tol, p.jacobian(t0, y0))
	return nil
}

// setup (re)starts the method at order 1 from (t0, y0) with step h.
func (b *bdf) setup(p *problem, t0 float64, y0, f []float64, h, maxStep float64, tol dynamo.Tolerances, j *mat.Dense) {
	b.p = p
	b.tol = tol
	b.maxStep = maxStep
	b.newtonTol = math.Max(10*eps/tol.Rel, math.Min(0.03, math.Sqrt(tol.Rel)))
	b.t = t0
	b.y = clone(y0)
	b.hAbs = h

	n := len(y0)
	b.d = make([][]float64, bdfMaxOrder+3)
	for i := range b.d {
		b.d[i] = make([]float64, n)
	}
	copy(b.d[0], y0)
	floats.ScaleTo(b.d[1], h, f)

	b.order = 1
	b.equalSteps = 0
	b.j = j
	b.lu = nil
}

func (b *bdf) current() (float64, []float64) { return b.t, b.y }
func (b *bdf) counts() (int, int)            { return b.steps, b.rejected }

func (b *bdf) solveSystem(tNew float64, yPredict []float64, c float64, psi, scale []float64) (converged bool, iters int, y, d []float64) {
	n := len(yPredict)
	y = clone(yPredict)
	d = make([]float64, n)
	normOld := -1.0
	rhs := make([]float64, n)

	for k := 0; k < bdfNewtonMaxIter; k++ {
		iters = k + 1
		f := b.p.f(tNew, y)
		if !allFinite(f) {
			break
		}
		for i := range rhs {
			rhs[i] = c*f[i] - psi[i] - d[i]
		}
		dy, err := luSolve(b.lu, rhs)
		if err != nil {
			break
		}
		dyNorm := scaledNorm(dy, scale)
		rate := -1.0
		if normOld >= 0 {
			rate = dyNorm / normOld
		}
		if rate >= 0 && (rate >= 1 || math.Pow(rate, float64(bdfNewtonMaxIter-k))/(1-rate)*dyNorm > b.newtonTol) {
			break
		}
		floats.Add(y, dy)
		floats.Add(d, dy)
		if dyNorm == 0 || (rate >= 0 && rate/(1-rate)*dyNorm < b.newtonTol) {
			converged = true
			break
		}
		normOld = dyNorm
	}
	return converged, iters, y, d
}

func (b *bdf) factorize(c float64) {
	n := len(b.y)
	a := mat.NewDense(n, n, nil)
	a.Scale(-c, b.j)
	for i := 0; i < n; i++ {
		a.Set(i, i, a.At(i, i)+1)
	}
	b.lu = b.p.factorize(a)
	b.luC = c
}

func (b *bdf) step(tBound float64) error {
	t := b.t
	d := b.d
	hMin := minStep(t)

	hAbs := b.hAbs
	if hAbs > b.maxStep {
		changeD(d, b.order, b.maxStep/hAbs)
		hAbs = b.maxStep
		b.equalSteps = 0
	} else if hAbs < hMin {
		changeD(d, b.order, hMin/hAbs)
		hAbs = hMin
		b.equalSteps = 0
	}

	order := b.order
	n := len(b.y)
	currentJac := false

	var (
		yNew, dNew []float64
		errNorm    float64
		safety     float64
		scale      = make([]float64, n)
		tNew       float64
	)

	for {
		if hAbs < hMin {
			b.hAbs = hAbs
			return tooSmall()
		}
		var clipped bool
		if tNew, clipped = clip(t, hAbs, tBound); clipped {
			changeD(d, order, math.Abs(tNew-t)/hAbs)
			b.equalSteps = 0
			b.lu = nil
		}
		h := tNew - t
		hAbs = math.Abs(h)

		yPredict := make([]float64, n)
		for i := 0; i <= order; i++ {
			floats.Add(yPredict, d[i])
		}
		for i := range scale {
			scale[i] = b.tol.Abs + b.tol.Rel*math.Abs(yPredict[i])
		}
		psi := make([]float64, n)
		for i := 1; i <= order; i++ {
			floats.AddScaled(psi, bdfGamma[i], d[i])
		}
		floats.Scale(1/bdfAlpha[order], psi)

		c := h / bdfAlpha[order]
		converged := false
		var iters int
		for !converged {
			if b.lu == nil || b.luC != c {
				b.factorize(c)
			}
			converged, iters, yNew, dNew = b.solveSystem(tNew, yPredict, c, psi, scale)
			if !converged {
				if currentJac {
					break
				}
				b.j = b.p.jacobian(tNew, yPredict)
				b.lu = nil
				currentJac = true
			}
		}
		if !converged {
			hAbs *= 0.5
			changeD(d, order, 0.5)
			b.equalSteps = 0
			b.lu = nil
			b.rejected++
			continue
		}

		safety = 0.9 * float64(2*bdfNewtonMaxIter+1) / float64(2*bdfNewtonMaxIter+iters)
		for i := range scale {
			scale[i] = b.tol.Abs + b.tol.Rel*math.Abs(yNew[i])
		}
		errVec := clone(dNew)
		floats.Scale(bdfErrorConst[order], errVec)
		errNorm = scaledNorm(errVec, scale)

		if errNorm > 1 || math.IsNaN(errNorm) {
			factor := shrink(safety * math.Pow(errNorm, -1/float64(order+1)))
			hAbs *= factor
			changeD(d, order, factor)
			b.equalSteps = 0
			b.rejected++
			continue
		}
		break
	}

	b.steps++
	b.equalSteps++
	b.t = tNew
	b.y = yNew
	b.hAbs = hAbs
	b.lastNorm = hAbs * b.jacobianNormInf()

	floats.SubTo(d[order+2], dNew, d[order+1])
	copy(d[order+1], dNew)
	for i := order; i >= 0; i-- {
		floats.Add(d[i], d[i+1])
	}

	if b.equalSteps < order+1 {
		return nil
	}

	errM := math.Inf(1)
	if order > 1 {
		v := clone(d[order])
		floats.Scale(bdfErrorConst[order-1], v)
		errM = scaledNorm(v, scale)
	}
	errP := math.Inf(1)
	if order < bdfMaxOrder {
		v := clone(d[order+2])
		floats.Scale(bdfErrorConst[order+1], v)
		errP = scaledNorm(v, scale)
	}

	norms := [3]float64{errM, errNorm, errP}
	best, bestFactor := 0, -1.0
	for i, en := range norms {
		f := math.Pow(en, -1/float64(order+i))
		if f > bestFactor {
			best, bestFactor = i, f
		}
	}
	order += best - 1
	b.order = order

	factor := math.Min(maxFactor, safety*bestFactor)
	b.hAbs *= factor
	changeD(d, order, factor)
	b.equalSteps = 0
	b.lu = nil
	return nil
}

func (b *bdf) jacobianNormInf() float64 {
	if b.j == nil {
		return 0
	}
	return mat.Norm(b.j, math.Inf(1))
}
