package sim

import (
	"math"
	"testing"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// opaque hides any closed-form Jacobian of the wrapped system.
type opaque struct{ dynamo.System }

func TestLinearizeUsesClosedForm(t *testing.T) {
	model := physics.NewCyberWar(physics.DefaultParams())
	x := dynamo.State{-5, 40, 10, 3}

	got := linearize(model, x)
	want := model.Jacobian(x)
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("J[%d][%d] = %g, want %g", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestLinearizeFallsBackToDifferences(t *testing.T) {
	model := physics.NewCyberWar(physics.DefaultParams())
	x := dynamo.State{90, 40, 25, 15}

	got := linearize(opaque{model}, x)
	want := model.Jacobian(x)
	if len(got) != len(want) {
		t.Fatalf("got %d rows", len(got))
	}
	for i := range want {
		for j := range want[i] {
			if math.Abs(got[i][j]-want[i][j]) > 1e-6 {
				t.Errorf("J[%d][%d] = %g, want %g", i, j, got[i][j], want[i][j])
			}
		}
	}
}
