package integrators

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// Canonical method names.
const (
	MethodRK45   = "explicit-RK45"
	MethodDOP853 = "high-order-explicit-DOP853"
	MethodRadau  = "implicit-Radau"
	MethodBDF    = "implicit-BDF"
	MethodLSODA  = "auto-stiff-LSODA"
)

// Solver integrates a system over a span, sampling every span.Resolution.
// Internal steps never exceed the resolution. On failure the returned error is
// a *dynamo.SolverError and no trajectory is returned.
type Solver interface {
	Name() string
	Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, span dynamo.Span, tol dynamo.Tolerances) (*dynamo.Trajectory, error)
}

type stepSolver struct {
	name       string
	newStepper func() stepper
}

func (s *stepSolver) Name() string { return s.name }

func (s *stepSolver) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, span dynamo.Span, tol dynamo.Tolerances) (*dynamo.Trajectory, error) {
	return drive(ctx, s.name, s.newStepper(), sys, x0, span, tol)
}

func NewRK45() Solver {
	return &stepSolver{name: MethodRK45, newStepper: func() stepper { return newExplicitRK(dormandPrince) }}
}

func NewDOP853() Solver {
	return &stepSolver{name: MethodDOP853, newStepper: func() stepper { return newExplicitRK(dop853) }}
}

func NewRadau() Solver {
	return &stepSolver{name: MethodRadau, newStepper: func() stepper { return newRadau() }}
}

func NewBDF() Solver {
	return &stepSolver{name: MethodBDF, newStepper: func() stepper { return newBDF() }}
}

func NewLSODA() Solver {
	return &stepSolver{name: MethodLSODA, newStepper: func() stepper { return newSwitching() }}
}

type Registry struct {
	solvers map[string]func() Solver
	aliases map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]func() Solver),
		aliases: make(map[string]string),
	}

	r.solvers[MethodRK45] = NewRK45
	r.solvers[MethodDOP853] = NewDOP853
	r.solvers[MethodRadau] = NewRadau
	r.solvers[MethodBDF] = NewBDF
	r.solvers[MethodLSODA] = NewLSODA

	r.aliases["RK45"] = MethodRK45
	r.aliases["DOP853"] = MethodDOP853
	r.aliases["Radau"] = MethodRadau
	r.aliases["BDF"] = MethodBDF
	r.aliases["LSODA"] = MethodLSODA

	return r
}

// Canonical resolves an alias to its canonical method name.
func (r *Registry) Canonical(name string) (string, bool) {
	if _, ok := r.solvers[name]; ok {
		return name, true
	}
	if c, ok := r.aliases[name]; ok {
		return c, true
	}
	return "", false
}

func (r *Registry) Get(name string) (Solver, error) {
	canonical, ok := r.Canonical(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, name)
	}
	return r.solvers[canonical](), nil
}

// Methods lists canonical names in sorted order.
func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// New returns the solver registered under name or one of its aliases.
func New(name string) (Solver, error) { return defaultRegistry.Get(name) }

func Canonical(name string) (string, bool) { return defaultRegistry.Canonical(name) }

func Methods() []string { return defaultRegistry.Methods() }
