package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// tableau is an embedded explicit Runge-Kutta pair. e has one more entry than
// b: the last weight multiplies f(t+h, y_new).
type tableau struct {
	name       string
	errorOrder int
	c          []float64
	a          [][]float64
	b          []float64
	e          []float64
	// e3 selects the DOP853 blended 5th/3rd order error estimate when set.
	e3 []float64
}

type explicitRK struct {
	tab      *tableau
	p        *problem
	tol      dynamo.Tolerances
	maxStep  float64
	exponent float64

	t    float64
	y    []float64
	f    []float64
	hAbs float64
	k    [][]float64

	lastStage []float64
	// stiffness is h*|lambda| estimated on the last accepted step.
	stiffness float64

	steps    int
	rejected int
}

func newExplicitRK(tab *tableau) *explicitRK {
	return &explicitRK{tab: tab, exponent: -1.0 / float64(tab.errorOrder+1)}
}

func (r *explicitRK) init(p *problem, t0, tEnd float64, y0 []float64, maxStep float64, tol dynamo.Tolerances) error {
	r.p = p
	r.tol = tol
	r.maxStep = maxStep
	r.t = t0
	r.y = y0
	r.f = p.f(t0, y0)
	r.hAbs = selectInitialStep(p, t0, y0, r.f, tEnd-t0, maxStep, r.tab.errorOrder, tol)
	r.k = make([][]float64, len(r.tab.c)+1)
	for i := range r.k {
		r.k[i] = make([]float64, len(y0))
	}
	return nil
}

// resume restarts from (t, y) with a suggested step, keeping counters.
func (r *explicitRK) resume(t float64, y []float64, hAbs float64) {
	r.t = t
	r.y = append([]float64(nil), y...)
	r.f = r.p.f(t, r.y)
	r.hAbs = hAbs
	r.stiffness = 0
}

func (r *explicitRK) current() (float64, []float64) { return r.t, r.y }
func (r *explicitRK) counts() (int, int)            { return r.steps, r.rejected }

func (r *explicitRK) step(tBound float64) error {
	t := r.t
	hMin := minStep(t)
	hAbs := r.hAbs
	if hAbs > r.maxStep {
		hAbs = r.maxStep
	} else if hAbs < hMin {
		hAbs = hMin
	}

	n := len(r.y)
	scale := make([]float64, n)
	rejected := false
	for {
		if hAbs < hMin {
			return tooSmall()
		}
		proposed := hAbs
		tNew, clipped := clip(t, hAbs, tBound)
		h := tNew - t
		hAbs = math.Abs(h)

		yNew, fNew := r.stages(t, h)
		for i := range scale {
			scale[i] = r.tol.Abs + math.Max(math.Abs(r.y[i]), math.Abs(yNew[i]))*r.tol.Rel
		}
		errNorm := r.errorNorm(h, scale)

		if errNorm < 1 {
			factor := maxFactor
			if errNorm > 0 {
				factor = math.Min(maxFactor, safetyFactor*math.Pow(errNorm, r.exponent))
			}
			if rejected {
				factor = math.Min(1, factor)
			}
			hAbs *= factor
			if clipped && factor >= 1 {
				hAbs = math.Max(hAbs, proposed)
			}
			r.estimateStiffness(h, yNew, fNew)
			r.t, r.y, r.f, r.hAbs = tNew, yNew, fNew, hAbs
			r.steps++
			return nil
		}

		hAbs *= shrink(safetyFactor * math.Pow(errNorm, r.exponent))
		rejected = true
		r.rejected++
	}
}

func (r *explicitRK) stages(t, h float64) (yNew, fNew []float64) {
	tab := r.tab
	n := len(r.y)
	last := len(tab.c) - 1

	copy(r.k[0], r.f)
	ys := make([]float64, n)
	for s := 1; s <= last; s++ {
		copy(ys, r.y)
		for j, a := range tab.a[s][:s] {
			if a != 0 {
				floats.AddScaled(ys, h*a, r.k[j])
			}
		}
		r.k[s] = r.p.f(t+tab.c[s]*h, ys)
	}
	r.lastStage = append(r.lastStage[:0], ys...)

	yNew = append([]float64(nil), r.y...)
	for j, b := range tab.b {
		if b != 0 {
			floats.AddScaled(yNew, h*b, r.k[j])
		}
	}
	fNew = r.p.f(t+h, yNew)
	r.k[last+1] = fNew
	return yNew, fNew
}

func (r *explicitRK) combine(w []float64) []float64 {
	out := make([]float64, len(r.y))
	for j, wj := range w {
		if wj != 0 {
			floats.AddScaled(out, wj, r.k[j])
		}
	}
	return out
}

func (r *explicitRK) errorNorm(h float64, scale []float64) float64 {
	if r.tab.e3 == nil {
		err := r.combine(r.tab.e)
		floats.Scale(h, err)
		return scaledNorm(err, scale)
	}

	err5 := r.combine(r.tab.e)
	err3 := r.combine(r.tab.e3)
	floats.Div(err5, scale)
	floats.Div(err3, scale)
	n5 := floats.Dot(err5, err5)
	n3 := floats.Dot(err3, err3)
	if n5 == 0 && n3 == 0 {
		return 0
	}
	return math.Abs(h) * n5 / math.Sqrt((n5+0.01*n3)*float64(len(scale)))
}

// estimateStiffness applies Hairer's test: the last stage is evaluated at
// t+h, so |f(y_new) - f(stage)| / |y_new - stage| approximates the dominant
// eigenvalue magnitude.
func (r *explicitRK) estimateStiffness(h float64, yNew, fNew []float64) {
	last := len(r.tab.c) - 1
	num := 0.0
	den := 0.0
	for i := range yNew {
		df := fNew[i] - r.k[last][i]
		dy := yNew[i] - r.lastStage[i]
		num += df * df
		den += dy * dy
	}
	if den > 0 {
		r.stiffness = math.Abs(h) * math.Sqrt(num/den)
	} else {
		r.stiffness = 0
	}
}
