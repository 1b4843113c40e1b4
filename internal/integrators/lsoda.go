package integrators

import (
	"math"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// Switching thresholds. The Dormand-Prince stability boundary on the negative
// real axis sits near 3.3.
const (
	stiffLimit       = 3.25
	stiffSteps       = 15
	nonStiffReset    = 6
	nonStiffNorm     = 2.0
	nonStiffBDFSteps = 10
)

// switching starts with Dormand-Prince 5(4) and hands over to BDF while the
// problem looks stiff, then back again once it relaxes.
type switching struct {
	p       *problem
	tol     dynamo.Tolerances
	maxStep float64

	rk  *explicitRK
	bdf *bdf

	stiff      bool
	stiffRun   int
	relaxedRun int
	calmRun    int
	switches   int
}

func newSwitching() *switching {
	return &switching{rk: newExplicitRK(dormandPrince), bdf: newBDF()}
}

func (s *switching) init(p *problem, t0, tEnd float64, y0 []float64, maxStep float64, tol dynamo.Tolerances) error {
	s.p = p
	s.tol = tol
	s.maxStep = maxStep
	return s.rk.init(p, t0, tEnd, y0, maxStep, tol)
}

func (s *switching) current() (float64, []float64) {
	if s.stiff {
		return s.bdf.current()
	}
	return s.rk.current()
}

func (s *switching) counts() (int, int) {
	rs, rr := s.rk.counts()
	bs, br := s.bdf.counts()
	return rs + bs, rr + br
}

func (s *switching) step(tBound float64) error {
	if s.stiff {
		return s.stepStiff(tBound)
	}
	if err := s.rk.step(tBound); err != nil {
		return err
	}
	if s.rk.stiffness > stiffLimit {
		s.stiffRun++
		s.relaxedRun = 0
	} else {
		s.relaxedRun++
		if s.relaxedRun >= nonStiffReset {
			s.stiffRun = 0
		}
	}
	if s.stiffRun >= stiffSteps {
		t, y := s.rk.current()
		h := math.Min(s.rk.hAbs, s.maxStep)
		s.bdf.setup(s.p, t, y, s.rk.f, h, s.maxStep, s.tol, s.p.jacobian(t, y))
		s.stiff = true
		s.calmRun = 0
		s.switches++
	}
	return nil
}

func (s *switching) stepStiff(tBound float64) error {
	if err := s.bdf.step(tBound); err != nil {
		return err
	}
	if s.bdf.lastNorm < nonStiffNorm {
		s.calmRun++
	} else {
		s.calmRun = 0
	}
	if s.calmRun >= nonStiffBDFSteps {
		t, y := s.bdf.current()
		s.rk.resume(t, y, s.bdf.hAbs)
		s.stiff = false
		s.stiffRun = 0
		s.relaxedRun = 0
		s.switches++
	}
	return nil
}
