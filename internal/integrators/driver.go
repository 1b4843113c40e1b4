package integrators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// stepper advances one accepted internal step at a time. A step never moves
// past tBound and lands on it exactly when clipped.
type stepper interface {
	init(p *problem, t0, tEnd float64, y0 []float64, maxStep float64, tol dynamo.Tolerances) error
	step(tBound float64) error
	current() (float64, []float64)
	counts() (steps, rejected int)
}

// stepError is returned by steppers with the solver's diagnostic text.
type stepError struct {
	msg string
	err error
}

func (e *stepError) Error() string { return e.msg }
func (e *stepError) Unwrap() error { return e.err }

func tooSmall() error {
	return &stepError{msg: msgStepTooSmall, err: dynamo.ErrStepTooSmall}
}

// SampleCount is the number of samples 0, h, 2h, ... up to and including the
// first multiple of h that is >= T1 (relative to T0). Zero for an unusable span.
func SampleCount(span dynamo.Span) int {
	length := span.T1 - span.T0
	h := span.Resolution
	if h <= 0 || length < 0 {
		return 0
	}
	n := int(math.Floor(length/h+1e-9)) + 1
	if float64(n-1)*h < length*(1-1e-12) {
		n++
	}
	return n
}

// SampleAt is the k-th sample time of span.
func SampleAt(span dynamo.Span, k int) float64 {
	return span.T0 + float64(k)*span.Resolution
}

// maxPrealloc bounds the up-front trajectory capacity; longer runs grow by
// append so memory tracks progress rather than the requested grid.
const maxPrealloc = 4096

// drive runs st across span, recording the state at every sample time.
func drive(ctx context.Context, method string, st stepper, sys dynamo.System, x0 dynamo.State, span dynamo.Span, tol dynamo.Tolerances) (*dynamo.Trajectory, error) {
	if len(x0) != sys.StateDim() {
		return nil, &dynamo.SolverError{
			Method:  method,
			Message: fmt.Sprintf("initial state has %d components, system expects %d", len(x0), sys.StateDim()),
			Time:    span.T0,
			Wrapped: dynamo.ErrDimensionMismatch,
		}
	}
	n := SampleCount(span)
	if n == 0 {
		return nil, &dynamo.SolverError{Method: method, Message: "empty time span", Time: span.T0}
	}

	p := &problem{sys: sys}
	if err := st.init(p, span.T0, SampleAt(span, n-1), x0.Clone(), span.Resolution, tol); err != nil {
		return nil, solverError(method, span.T0, err)
	}

	traj := dynamo.NewTrajectory(min(n, maxPrealloc))
	traj.Append(span.T0, x0)

	for k := 1; k < n; k++ {
		target := SampleAt(span, k)
		for {
			t, _ := st.current()
			if t >= target {
				break
			}
			select {
			case <-ctx.Done():
				return nil, &dynamo.SolverError{
					Method:  method,
					Message: ctx.Err().Error(),
					Time:    t,
					Wrapped: errors.Join(dynamo.ErrContextCanceled, ctx.Err()),
				}
			default:
			}
			if err := st.step(target); err != nil {
				return nil, solverError(method, t, err)
			}
			if _, y := st.current(); !dynamo.State(y).IsValid() {
				tNow, _ := st.current()
				return nil, &dynamo.SolverError{
					Method:  method,
					Message: "integration diverged (non-finite state)",
					Time:    tNow,
					Wrapped: dynamo.ErrInvalidState,
				}
			}
		}
		_, y := st.current()
		traj.Append(target, y)
	}

	traj.Success = true
	traj.Message = "The solver successfully reached the end of the integration interval."
	traj.Evaluations = p.nfev
	traj.Jacobians = p.njev
	traj.Factorizations = p.nlu
	traj.Steps, traj.Rejected = st.counts()
	return traj, nil
}

func solverError(method string, t float64, err error) error {
	var se *stepError
	if errors.As(err, &se) {
		return &dynamo.SolverError{Method: method, Message: se.msg, Time: t, Wrapped: se.err}
	}
	return &dynamo.SolverError{Method: method, Message: err.Error(), Time: t, Wrapped: err}
}
