package integrators

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

type decay struct{ k float64 }

func (d *decay) StateDim() int   { return 1 }
func (d *decay) ControlDim() int { return 0 }
func (d *decay) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{-d.k * x[0]}
}

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }
func (h *harmonicOscillator) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// prothero is y' = -1000(y - cos t) - sin t with the smooth solution cos t.
type prothero struct{}

func (p *prothero) StateDim() int   { return 1 }
func (p *prothero) ControlDim() int { return 0 }
func (p *prothero) Derive(x dynamo.State, _ dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-1000*(x[0]-math.Cos(t)) - math.Sin(t)}
}

type blowUp struct{}

func (b *blowUp) StateDim() int   { return 1 }
func (b *blowUp) ControlDim() int { return 0 }
func (b *blowUp) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{x[0] * x[0]}
}

func allSolvers(t *testing.T) []Solver {
	t.Helper()
	var out []Solver
	for _, name := range Methods() {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		out = append(out, s)
	}
	return out
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name string
		span dynamo.Span
		n    int
		last float64
	}{
		{"default day", dynamo.Span{T1: 24, Resolution: 0.1}, 241, 24},
		{"week", dynamo.Span{T1: 168, Resolution: 0.1}, 1681, 168},
		{"non-dividing", dynamo.Span{T1: 1, Resolution: 0.3}, 5, 1.2},
		{"coarse", dynamo.Span{T1: 10, Resolution: 1}, 11, 10},
		{"zero length", dynamo.Span{T1: 0, Resolution: 0.1}, 1, 0},
		{"bad resolution", dynamo.Span{T1: 1, Resolution: 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := SampleCount(tt.span)
			if n != tt.n {
				t.Fatalf("got %d samples, want %d", n, tt.n)
			}
			if n == 0 {
				return
			}
			if SampleAt(tt.span, 0) != tt.span.T0 {
				t.Errorf("first sample = %v, want %v", SampleAt(tt.span, 0), tt.span.T0)
			}
			if math.Abs(SampleAt(tt.span, n-1)-tt.last) > 1e-9 {
				t.Errorf("last sample = %v, want %v", SampleAt(tt.span, n-1), tt.last)
			}
			for i := 1; i < n; i++ {
				if SampleAt(tt.span, i) <= SampleAt(tt.span, i-1) {
					t.Fatalf("times not increasing at %d", i)
				}
			}
		})
	}
}

func TestSampleCount_HugeGridIsArithmetic(t *testing.T) {
	n := SampleCount(dynamo.Span{T1: 168, Resolution: 1e-9})
	if n < 167_999_999_000 || n > 168_000_000_002 {
		t.Errorf("SampleCount = %d", n)
	}
}

func TestSolvers_FineGridStopsAtDeadline(t *testing.T) {
	sys := physics.NewCyberWar(physics.DefaultParams())
	span := dynamo.Span{T1: 168, Resolution: 1e-9}

	for _, s := range allSolvers(t) {
		t.Run(s.Name(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := s.Integrate(ctx, sys, physics.DefaultInitialState(), span, dynamo.DefaultTolerances())
			if !errors.Is(err, dynamo.ErrContextCanceled) || !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected deadline error, got %v", err)
			}
		})
	}
}

func TestSolvers_ExponentialDecay(t *testing.T) {
	span := dynamo.Span{T1: 2, Resolution: 0.1}
	for _, s := range allSolvers(t) {
		t.Run(s.Name(), func(t *testing.T) {
			traj, err := s.Integrate(context.Background(), &decay{k: 1}, dynamo.State{1}, span, dynamo.DefaultTolerances())
			if err != nil {
				t.Fatalf("Integrate: %v", err)
			}
			if traj.Len() != 21 {
				t.Fatalf("got %d samples, want 21", traj.Len())
			}
			if !traj.Success {
				t.Errorf("Success = false, message %q", traj.Message)
			}
			for i, ti := range traj.Times {
				want := math.Exp(-ti)
				if got := traj.States[i][0]; math.Abs(got-want) > 1e-5 {
					t.Errorf("y(%.1f) = %.10f, want %.10f", ti, got, want)
				}
			}
			if traj.Evaluations == 0 || traj.Steps == 0 {
				t.Errorf("work counters not filled: nfev=%d steps=%d", traj.Evaluations, traj.Steps)
			}
		})
	}
}

func TestSolvers_OriginStaysAtRest(t *testing.T) {
	sys := physics.NewCyberWar(physics.DefaultParams())
	span := dynamo.Span{T1: 5, Resolution: 0.5}
	for _, s := range allSolvers(t) {
		t.Run(s.Name(), func(t *testing.T) {
			traj, err := s.Integrate(context.Background(), sys, dynamo.State{0, 0, 0, 0}, span, dynamo.DefaultTolerances())
			if err != nil {
				t.Fatalf("Integrate: %v", err)
			}
			for i, x := range traj.States {
				if floats.Norm(x, 2) != 0 {
					t.Fatalf("state %d = %v, want origin", i, x)
				}
			}
		})
	}
}

func TestSolvers_CyberWarAgree(t *testing.T) {
	sys := physics.NewCyberWar(physics.DefaultParams())
	span := dynamo.Span{T1: 4, Resolution: 0.1}
	x0 := physics.DefaultInitialState()

	ref, err := NewDOP853().Integrate(context.Background(), sys, x0, span, dynamo.DefaultTolerances())
	if err != nil {
		t.Fatalf("DOP853: %v", err)
	}
	for _, s := range allSolvers(t) {
		t.Run(s.Name(), func(t *testing.T) {
			traj, err := s.Integrate(context.Background(), sys, x0, span, dynamo.DefaultTolerances())
			if err != nil {
				t.Fatalf("Integrate: %v", err)
			}
			if traj.Len() != ref.Len() {
				t.Fatalf("got %d samples, want %d", traj.Len(), ref.Len())
			}
			got, want := traj.Final(), ref.Final()
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-4*math.Max(1, math.Abs(want[i])) {
					t.Errorf("final[%d] = %.8f, want %.8f", i, got[i], want[i])
				}
			}
		})
	}
}

func TestSolvers_InputNotMutated(t *testing.T) {
	x0 := dynamo.State{1, 0}
	_, err := NewRK45().Integrate(context.Background(), &harmonicOscillator{}, x0, dynamo.Span{T1: 1, Resolution: 0.1}, dynamo.DefaultTolerances())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if x0[0] != 1 || x0[1] != 0 {
		t.Errorf("x0 mutated to %v", x0)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	traj, err := NewRK45().Integrate(context.Background(), dyn, x0, dynamo.Span{T1: 50, Resolution: 0.1}, dynamo.DefaultTolerances())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	initialEnergy := dyn.Energy(x0)
	finalEnergy := dyn.Energy(traj.Final())
	drift := math.Abs(finalEnergy-initialEnergy) / initialEnergy

	if drift > 1e-5 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestDOP853_MoreAccurateThanRK45(t *testing.T) {
	span := dynamo.Span{T1: 20, Resolution: 1}
	loose := dynamo.Tolerances{Abs: 1e-6, Rel: 1e-6}
	errAt := func(s Solver) float64 {
		traj, err := s.Integrate(context.Background(), &harmonicOscillator{}, dynamo.State{1, 0}, span, loose)
		if err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
		return math.Abs(traj.Final()[0] - math.Cos(20))
	}

	e45, e853 := errAt(NewRK45()), errAt(NewDOP853())
	t.Logf("RK45 error %.3e, DOP853 error %.3e", e45, e853)
	if e853 > 1e-4 || e45 > 1e-3 {
		t.Errorf("errors too large: RK45 %.3e, DOP853 %.3e", e45, e853)
	}
}

func TestImplicit_StiffProblem(t *testing.T) {
	span := dynamo.Span{T1: 10, Resolution: 0.5}
	explicit, err := NewRK45().Integrate(context.Background(), &prothero{}, dynamo.State{1}, span, dynamo.DefaultTolerances())
	if err != nil {
		t.Fatalf("RK45: %v", err)
	}

	for _, s := range []Solver{NewRadau(), NewBDF(), NewLSODA()} {
		t.Run(s.Name(), func(t *testing.T) {
			traj, err := s.Integrate(context.Background(), &prothero{}, dynamo.State{1}, span, dynamo.DefaultTolerances())
			if err != nil {
				t.Fatalf("Integrate: %v", err)
			}
			for i, ti := range traj.Times {
				if got := traj.States[i][0]; math.Abs(got-math.Cos(ti)) > 1e-5 {
					t.Errorf("y(%.1f) = %.8f, want %.8f", ti, got, math.Cos(ti))
				}
			}
			if s.Name() != MethodLSODA && traj.Steps >= explicit.Steps {
				t.Errorf("%s took %d steps, RK45 took %d", s.Name(), traj.Steps, explicit.Steps)
			}
			if s.Name() != MethodLSODA && traj.Jacobians == 0 {
				t.Error("no Jacobian evaluations recorded")
			}
		})
	}
}

func TestSolvers_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range allSolvers(t) {
		_, err := s.Integrate(ctx, &decay{k: 1}, dynamo.State{1}, dynamo.Span{T1: 1, Resolution: 0.1}, dynamo.DefaultTolerances())
		if !errors.Is(err, dynamo.ErrContextCanceled) {
			t.Errorf("%s: got %v, want ErrContextCanceled", s.Name(), err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%s: error does not wrap context.Canceled", s.Name())
		}
	}
}

func TestSolvers_DimensionMismatch(t *testing.T) {
	_, err := NewRadau().Integrate(context.Background(), &decay{k: 1}, dynamo.State{1, 2}, dynamo.Span{T1: 1, Resolution: 0.1}, dynamo.DefaultTolerances())
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestSolvers_FiniteTimeBlowUp(t *testing.T) {
	for _, s := range []Solver{NewRK45(), NewBDF()} {
		t.Run(s.Name(), func(t *testing.T) {
			traj, err := s.Integrate(context.Background(), &blowUp{}, dynamo.State{1}, dynamo.Span{T1: 2, Resolution: 0.1}, dynamo.DefaultTolerances())
			if err == nil {
				t.Fatalf("expected failure, got %d samples", traj.Len())
			}
			var se *dynamo.SolverError
			if !errors.As(err, &se) {
				t.Fatalf("got %T, want *dynamo.SolverError", err)
			}
			if se.Method != s.Name() {
				t.Errorf("Method = %q, want %q", se.Method, s.Name())
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"RK45", MethodRK45, true},
		{"DOP853", MethodDOP853, true},
		{"Radau", MethodRadau, true},
		{"BDF", MethodBDF, true},
		{"LSODA", MethodLSODA, true},
		{MethodBDF, MethodBDF, true},
		{"rk45", "", false},
		{"Euler", "", false},
	}

	for _, tt := range tests {
		got, ok := Canonical(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}

	if _, err := New("Euler"); !errors.Is(err, dynamo.ErrUnknownMethod) {
		t.Errorf("New(Euler) error = %v, want ErrUnknownMethod", err)
	}
	if n := len(Methods()); n != 5 {
		t.Errorf("Methods() has %d entries, want 5", n)
	}
}

func TestClip(t *testing.T) {
	if tNew, clipped := clip(0, 0.3, 0.2); tNew != 0.2 || !clipped {
		t.Errorf("overshoot: got %v, %v", tNew, clipped)
	}
	if tNew, clipped := clip(0, 0.1, 0.2); tNew != 0.1 || clipped {
		t.Errorf("interior: got %v, %v", tNew, clipped)
	}
	if tNew, clipped := clip(0.1, 0.1-1e-15, 0.2); tNew != 0.2 || !clipped {
		t.Errorf("sliver: got %v, %v", tNew, clipped)
	}
}

func TestBDFR_IdentityAtUnitFactor(t *testing.T) {
	d := [][]float64{{1, 2}, {3, 4}, {5, 6}, {0, 0}}
	want := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	changeD(d, 2, 1)
	for i := range want {
		for j := range want[i] {
			if math.Abs(d[i][j]-want[i][j]) > 1e-12 {
				t.Errorf("d[%d][%d] = %v, want %v", i, j, d[i][j], want[i][j])
			}
		}
	}
}

func TestSwitching_CountsBothMethods(t *testing.T) {
	s := newSwitching()
	p := &problem{sys: &prothero{}}
	if err := s.init(p, 0, 5, []float64{1}, 0.5, dynamo.DefaultTolerances()); err != nil {
		t.Fatalf("init: %v", err)
	}
	for {
		tc, _ := s.current()
		if tc >= 5 {
			break
		}
		if err := s.step(5); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	steps, _ := s.counts()
	rkSteps, _ := s.rk.counts()
	bdfSteps, _ := s.bdf.counts()
	if steps != rkSteps+bdfSteps {
		t.Errorf("counts() = %d, want %d + %d", steps, rkSteps, bdfSteps)
	}
	t.Logf("switches=%d rk=%d bdf=%d", s.switches, rkSteps, bdfSteps)
}
