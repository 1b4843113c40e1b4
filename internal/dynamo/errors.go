package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrNewtonFailed indicates an implicit step could not converge at any step size.
	ErrNewtonFailed = errors.New("dynamo: newton iteration failed to converge")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnknownMethod indicates an unregistered solver name.
	ErrUnknownMethod = errors.New("dynamo: unknown solver method")

	// ErrEigenFailed indicates the eigen-decomposition did not converge.
	ErrEigenFailed = errors.New("dynamo: eigen decomposition failed")
)

// ValidationError reports a rejected input before any computation runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SolverError carries the integrator's diagnostic when no trajectory could be
// produced.
type SolverError struct {
	Method  string
	Message string
	Time    float64
	Wrapped error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s solver failed at t=%.6g: %s", e.Method, e.Time, e.Message)
}

func (e *SolverError) Unwrap() error {
	return e.Wrapped
}

// SimulationError wraps a failure raised while orchestrating a run, tagged
// with the stage that was executing.
type SimulationError struct {
	Stage   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed during %s: %v", e.Stage, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// InternalError hides its cause from Error(); callers that need the detail for
// logs can unwrap it.
type InternalError struct {
	Wrapped error
}

func (e *InternalError) Error() string {
	return "an unexpected error occurred"
}

func (e *InternalError) Unwrap() error {
	return e.Wrapped
}

// Kind names the taxonomy bucket of err, as reported in API error bodies.
func Kind(err error) string {
	var (
		ve *ValidationError
		se *SolverError
		me *SimulationError
	)
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &se):
		return "solver_error"
	case errors.As(err, &me):
		return "simulation_error"
	default:
		return "internal_error"
	}
}
