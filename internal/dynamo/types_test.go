package dynamo

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTrajectory_AppendAndChannel(t *testing.T) {
	tr := NewTrajectory(3)
	x := State{1, 2, 3, 4}
	tr.Append(0, x)
	x[0] = 10
	tr.Append(0.5, x)

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	if tr.States[0][0] != 1 {
		t.Error("Append did not copy the state")
	}
	ch := tr.Channel(0)
	if ch[0] != 1 || ch[1] != 10 {
		t.Errorf("Channel(0) = %v", ch)
	}
	if tr.Final()[0] != 10 {
		t.Errorf("Final() = %v", tr.Final())
	}
	if (&Trajectory{}).Final() != nil {
		t.Error("Final() of empty trajectory should be nil")
	}
}

func TestDefaultTolerances(t *testing.T) {
	tol := DefaultTolerances()
	if tol.Abs != 1e-10 || tol.Rel != 1e-8 {
		t.Errorf("DefaultTolerances() = %+v", tol)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{Invalid("time_span", "must be <= 168"), "validation_error"},
		{&SolverError{Method: "BDF", Message: "diverged"}, "solver_error"},
		{&SimulationError{Stage: "eigen", Wrapped: ErrEigenFailed}, "simulation_error"},
		{&InternalError{Wrapped: errors.New("boom")}, "internal_error"},
		{errors.New("plain"), "internal_error"},
		{fmt.Errorf("wrapped: %w", Invalid("h", "bad")), "validation_error"},
	}

	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.kind {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
	}
}

func TestInternalError_HidesCause(t *testing.T) {
	cause := errors.New("secret path /etc/passwd")
	err := &InternalError{Wrapped: cause}
	if err.Error() == cause.Error() {
		t.Error("InternalError leaked its cause")
	}
	if !errors.Is(err, cause) {
		t.Error("InternalError should unwrap to its cause")
	}
}

func TestSolverError_Unwrap(t *testing.T) {
	err := &SolverError{Method: "Radau", Message: "newton failed", Wrapped: ErrNewtonFailed}
	if !errors.Is(err, ErrNewtonFailed) {
		t.Error("SolverError should unwrap to ErrNewtonFailed")
	}
	want := "Radau solver failed at t=0: newton failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
