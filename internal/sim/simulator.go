package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/observability"
	"github.com/san-kum/cyberdyn/internal/physics"
)

// Stage names, as reported in SimulationError.Stage and span names.
const (
	StageValidate  = "validate"
	StagePreflight = "preflight"
	StageIntegrate = "integrate"
	StageJacobian  = "jacobian"
	StageEigen     = "eigen"
	StageClassify  = "classify"
	StageAssemble  = "assemble"
	StageQueue     = "queue"
)

// Recorder receives run outcomes. *observability.Collector implements it.
type Recorder interface {
	ObserveSimulation(method, outcome string, elapsed time.Duration, points int)
	SimulationStarted()
	SimulationFinished()
}

type nopRecorder struct{}

func (nopRecorder) ObserveSimulation(string, string, time.Duration, int) {}
func (nopRecorder) SimulationStarted()                                   {}
func (nopRecorder) SimulationFinished()                                  {}

// Simulator runs one request end to end: integrate, linearize at the final
// state, and classify. It holds no per-run state and is safe for concurrent use.
type Simulator struct {
	log    logging.Logger
	rec    Recorder
	tracer trace.Tracer
	tol    dynamo.Tolerances
}

type Option func(*Simulator)

func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rec = r
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Simulator) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithTolerances(tol dynamo.Tolerances) Option {
	return func(s *Simulator) { s.tol = tol }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		log:    logging.Noop(),
		rec:    nopRecorder{},
		tracer: observability.Tracer(),
		tol:    dynamo.DefaultTolerances(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates req and executes it. Errors are one of *dynamo.ValidationError,
// *dynamo.SolverError, *dynamo.SimulationError or *dynamo.InternalError.
func (s *Simulator) Run(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	method, known := integrators.Canonical(req.SolverMethod)
	if !known {
		method = "unknown"
	}

	ctx, span := s.tracer.Start(ctx, "simulate", trace.WithAttributes(
		attribute.String("solver.method", method),
		attribute.Float64("simulation.time_span", req.TimeSpan),
		attribute.Float64("simulation.resolution", req.Resolution),
	))
	defer span.End()

	log := logging.FromContext(ctx, s.log).With(logging.String("solver_method", method))
	stage := StageValidate

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &dynamo.InternalError{Wrapped: fmt.Errorf("panic during %s: %v", stage, r)}
		}
		outcome, points := "ok", 0
		if err != nil {
			outcome = dynamo.Kind(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			log.Error(ctx, "simulation failed",
				logging.String("stage", stage),
				logging.String("error_type", outcome),
				logging.Any("parameters", req),
				logging.Err(err),
			)
		} else {
			points = res.Metadata.DataPoints
			span.SetAttributes(attribute.Int("simulation.data_points", points))
		}
		s.rec.ObserveSimulation(method, outcome, time.Since(start), points)
	}()

	if err = s.stage(ctx, StageValidate, func(context.Context) error { return req.Validate() }); err != nil {
		return nil, err
	}

	stage = StagePreflight
	var warnings []string
	_ = s.stage(ctx, StagePreflight, func(ctx context.Context) error {
		warnings = req.Warnings()
		for _, w := range warnings {
			log.Warn(ctx, w,
				logging.Float("beta", req.Beta),
				logging.Float("time_span", req.TimeSpan),
				logging.Float("resolution", req.Resolution),
			)
		}
		return nil
	})

	var sys dynamo.System = physics.NewCyberWar(req.Params)
	span0 := req.Span()
	log.Info(ctx, "starting simulation", logging.Int("time_points", integrators.SampleCount(span0)))

	stage = StageIntegrate
	var tr *dynamo.Trajectory
	err = s.stage(ctx, StageIntegrate, func(ctx context.Context) error {
		solver, err := integrators.New(method)
		if err != nil {
			return err
		}
		tr, err = solver.Integrate(ctx, sys, req.InitialState(), span0, s.tol)
		if err != nil && errors.Is(err, dynamo.ErrContextCanceled) {
			return canceled(StageIntegrate, ctx)
		}
		return err
	})
	if err != nil {
		return nil, wrapStage(stage, err)
	}

	final := tr.Final()
	log.Info(ctx, "final state",
		logging.Float("x", final[physics.Defender]),
		logging.Float("y", final[physics.Attacker]),
		logging.Float("z", final[physics.Vulnerability]),
		logging.Float("u", final[physics.Intelligence]),
	)

	stage = StageJacobian
	var jac [][]float64
	err = s.stage(ctx, StageJacobian, func(context.Context) error {
		jac = linearize(sys, final)
		for _, row := range jac {
			if !dynamo.State(row).IsValid() {
				return fmt.Errorf("%w: jacobian at final state", dynamo.ErrInvalidState)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStage(stage, err)
	}

	stage = StageEigen
	var eig []analysis.Eigenvalue
	err = s.stage(ctx, StageEigen, func(context.Context) error {
		var err error
		eig, err = analysis.Eigenvalues(jac)
		return err
	})
	if err != nil {
		return nil, wrapStage(stage, err)
	}

	stage = StageClassify
	var stability analysis.Stability
	_ = s.stage(ctx, StageClassify, func(ctx context.Context) error {
		stability = analysis.Classify(eig)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("simulation.stability", string(stability)))
		return nil
	})

	stage = StageAssemble
	res = &Result{
		TimeSeries:  newTimeSeries(tr),
		Jacobian:    jac,
		Eigenvalues: eig,
		Stability:   stability,
		Parameters:  req,
		Metadata: Metadata{
			SimulationTime: req.TimeSpan,
			Resolution:     req.Resolution,
			SolverMethod:   method,
			SolverSuccess:  tr.Success,
			SolverMessage:  tr.Message,
			DataPoints:     tr.Len(),
			FinalState: FinalState{
				X: final[physics.Defender],
				Y: final[physics.Attacker],
				Z: final[physics.Vulnerability],
				U: final[physics.Intelligence],
			},
			Stats: SolverStats{
				Evaluations:    tr.Evaluations,
				Steps:          tr.Steps,
				Rejected:       tr.Rejected,
				Jacobians:      tr.Jacobians,
				Factorizations: tr.Factorizations,
			},
			Warnings:      warnings,
			ElapsedMillis: float64(time.Since(start).Microseconds()) / 1000,
		},
		Trajectory: tr,
	}

	log.Info(ctx, "simulation completed successfully",
		logging.String("stability", string(stability)),
		logging.Int("data_points", res.Metadata.DataPoints),
		logging.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Simulator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// wrapStage leaves already classified errors alone and tags everything else
// with the stage it came from.
func wrapStage(stage string, err error) error {
	var (
		ve *dynamo.ValidationError
		se *dynamo.SolverError
		me *dynamo.SimulationError
	)
	if errors.As(err, &ve) || errors.As(err, &se) || errors.As(err, &me) {
		return err
	}
	return &dynamo.SimulationError{Stage: stage, Wrapped: err}
}

func canceled(stage string, ctx context.Context) error {
	return &dynamo.SimulationError{
		Stage:   stage,
		Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, context.Cause(ctx)),
	}
}
