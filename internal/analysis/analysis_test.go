package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

func ev(re, im float64) Eigenvalue { return Eigenvalue{Real: re, Imag: im} }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		vals []Eigenvalue
		want Stability
	}{
		{"all negative real", []Eigenvalue{ev(-1, 0), ev(-1, 0), ev(-1, 0), ev(-1, 0)}, StableNode},
		{"all positive real", []Eigenvalue{ev(1, 0), ev(2, 0), ev(3, 0), ev(4, 0)}, UnstableNode},
		{"mixed real", []Eigenvalue{ev(1, 0), ev(-1, 0), ev(2, 0), ev(-3, 0)}, SaddlePoint},
		{"real with zero", []Eigenvalue{ev(0, 0), ev(-1, 0), ev(-2, 0), ev(-3, 0)}, DegenerateCase},
		{"spiral sink", []Eigenvalue{ev(-1, 2), ev(-1, -2), ev(-3, 0), ev(-4, 0)}, SpiralSink},
		{"spiral source", []Eigenvalue{ev(1, 2), ev(1, -2), ev(3, 0), ev(4, 0)}, SpiralSource},
		{"center", []Eigenvalue{ev(0, 0), ev(0, 0), ev(0, 5), ev(0, -5)}, Center},
		{"spiral saddle", []Eigenvalue{ev(1, 2), ev(1, -2), ev(-3, 0), ev(-4, 0)}, SpiralSaddle},
		{"complex with zero and negatives", []Eigenvalue{ev(-1, 2), ev(-1, -2), ev(0, 0), ev(-4, 0)}, ComplexBehavior},
		{"real part at tolerance", []Eigenvalue{ev(-Tolerance, 0), ev(-1, 0), ev(-1, 0), ev(-1, 0)}, DegenerateCase},
		{"imag just below tolerance", []Eigenvalue{ev(-1, 0.5e-10), ev(-1, -0.5e-10), ev(-2, 0), ev(-3, 0)}, StableNode},
		{"imag at tolerance", []Eigenvalue{ev(-1, Tolerance), ev(-1, -Tolerance), ev(-2, 0), ev(-3, 0)}, SpiralSink},
		{"tiny reals with imag", []Eigenvalue{ev(1e-12, 3), ev(1e-12, -3), ev(-1e-11, 1), ev(-1e-11, -1)}, Center},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.vals); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.vals, got, tt.want)
			}
		})
	}
}

func TestClassify_PermutationInvariant(t *testing.T) {
	sets := [][]Eigenvalue{
		{ev(1, 0), ev(-1, 0), ev(2, 0), ev(-3, 0)},
		{ev(-1, 2), ev(-1, -2), ev(0, 0), ev(-4, 0)},
		{ev(0, 0), ev(0, 0), ev(0, 5), ev(0, -5)},
		{ev(1, 2), ev(1, -2), ev(-3, 0), ev(0, 0)},
	}
	for _, set := range sets {
		want := Classify(set)
		idx := []int{0, 1, 2, 3}
		for permute(idx) {
			p := make([]Eigenvalue, len(set))
			for i, j := range idx {
				p[i] = set[j]
			}
			if got := Classify(p); got != want {
				t.Fatalf("Classify(%v) = %q, want %q", p, got, want)
			}
		}
	}
}

// permute advances idx to the next lexicographic permutation.
func permute(idx []int) bool {
	i := len(idx) - 2
	for i >= 0 && idx[i] >= idx[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(idx) - 1
	for idx[j] <= idx[i] {
		j--
	}
	idx[i], idx[j] = idx[j], idx[i]
	sort.Ints(idx[i+1:])
	return true
}

func TestLabels(t *testing.T) {
	seen := map[Stability]bool{}
	for _, l := range Labels {
		seen[l] = true
	}
	if len(seen) != 9 {
		t.Errorf("got %d distinct labels, want 9", len(seen))
	}
	if !StableNode.Stable() || !SpiralSink.Stable() || Center.Stable() {
		t.Error("Stable() wrong")
	}
}

func TestEigenvalues_Diagonal(t *testing.T) {
	vals, err := Eigenvalues([][]float64{
		{-1, 0, 0, 0},
		{0, -2, 0, 0},
		{0, 0, 3, 0},
		{0, 0, 0, -4},
	})
	if err != nil {
		t.Fatalf("Eigenvalues: %v", err)
	}
	got := make([]float64, len(vals))
	for i, v := range vals {
		if !v.IsReal() {
			t.Errorf("eigenvalue %v should be real", v)
		}
		got[i] = v.Real
	}
	sort.Float64s(got)
	want := []float64{-4, -2, -1, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
	if Classify(vals) != SaddlePoint {
		t.Errorf("Classify = %q, want saddle point", Classify(vals))
	}
}

func TestEigenvalues_Rotation(t *testing.T) {
	vals, err := Eigenvalues([][]float64{
		{-1, 2, 0, 0},
		{-2, -1, 0, 0},
		{0, 0, -3, 0},
		{0, 0, 0, -4},
	})
	if err != nil {
		t.Fatalf("Eigenvalues: %v", err)
	}
	complexCount := 0
	for _, v := range vals {
		if !v.IsReal() {
			complexCount++
			if math.Abs(v.Real+1) > 1e-12 || math.Abs(math.Abs(v.Imag)-2) > 1e-12 {
				t.Errorf("unexpected complex eigenvalue %v", v)
			}
		}
	}
	if complexCount != 2 {
		t.Errorf("got %d complex eigenvalues, want 2", complexCount)
	}
	if Classify(vals) != SpiralSink {
		t.Errorf("Classify = %q, want spiral sink", Classify(vals))
	}
}

func TestEigenvalues_Deterministic(t *testing.T) {
	sys := physics.NewCyberWar(physics.DefaultParams())
	j := sys.Jacobian(physics.DefaultInitialState())
	a, err := Eigenvalues(j)
	if err != nil {
		t.Fatalf("Eigenvalues: %v", err)
	}
	b, _ := Eigenvalues(j)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run 2 differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
	if len(a) != 4 {
		t.Errorf("got %d eigenvalues, want 4", len(a))
	}
}

func TestEigenvalues_Errors(t *testing.T) {
	if _, err := Eigenvalues(nil); !errors.Is(err, dynamo.ErrEigenFailed) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := Eigenvalues([][]float64{{1, 2}, {3}}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("ragged: got %v", err)
	}
	if _, err := Eigenvalues([][]float64{{math.NaN(), 0}, {0, 1}}); !errors.Is(err, dynamo.ErrEigenFailed) {
		t.Errorf("NaN: got %v", err)
	}
}

func TestEigenvalue_JSON(t *testing.T) {
	data, err := json.Marshal([]Eigenvalue{ev(-0.5, 0), ev(-1, 2), ev(3, 1e-12)})
	if err != nil {
		t.Fatal(err)
	}
	want := `[-0.5,{"real":-1,"imag":2},3]`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back []Eigenvalue
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back[1] != ev(-1, 2) || back[0] != ev(-0.5, 0) {
		t.Errorf("decoded %v", back)
	}
}

func TestEigenvalue_String(t *testing.T) {
	if s := ev(-1, -2).String(); s != "-1-2i" {
		t.Errorf("got %q", s)
	}
	if s := ev(0.5, 0).String(); s != "0.5" {
		t.Errorf("got %q", s)
	}
}

func circle(n int, dt float64) *dynamo.Trajectory {
	tr := dynamo.NewTrajectory(n)
	for k := 0; k < n; k++ {
		ti := float64(k) * dt
		tr.Append(ti, dynamo.State{math.Cos(ti), math.Sin(ti)})
	}
	return tr
}

func TestPhasePortrait(t *testing.T) {
	tr := circle(200, 0.05)
	p := NewPhasePortrait(tr, 0, 1)
	if p == nil || len(p.Points) != 200 {
		t.Fatal("expected 200 points")
	}
	if p.Points[0] != (Point{X: 1, Y: 0}) {
		t.Errorf("first point = %v", p.Points[0])
	}
	if NewPhasePortrait(tr, 0, 5) != nil {
		t.Error("out of range channel should give nil")
	}
}

func TestDominantPeriod(t *testing.T) {
	dt := 0.1
	vals := make([]float64, 1024)
	for i := range vals {
		vals[i] = 5 + math.Sin(2*math.Pi*float64(i)*dt/12.8)
	}
	period, ok := DominantPeriod(vals, dt)
	if !ok {
		t.Fatal("no period found")
	}
	if math.Abs(period-12.8) > 0.5 {
		t.Errorf("period = %v, want 12.8", period)
	}

	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 3
	}
	if _, ok := DominantPeriod(flat, dt); ok {
		t.Error("flat series should have no period")
	}
	if _, ok := DominantPeriod([]float64{1, 2}, dt); ok {
		t.Error("short series should have no period")
	}
}

func TestPowerSpectrum_Impulse(t *testing.T) {
	ps := PowerSpectrum([]float64{1, 0, 0, 0, 0, 0, 0, 0})
	if len(ps) != 4 {
		t.Fatalf("len = %d, want 4", len(ps))
	}
	for i, v := range ps {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("ps[%d] = %v, want 1", i, v)
		}
	}
}
