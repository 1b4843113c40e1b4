package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/metrics"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
)

type Tools struct {
	Pool *sim.Pool
	Log  logging.Logger
}

// --- Input types ---

type SimulateInput struct {
	Preset            string             `json:"preset,omitempty" jsonschema:"Optional preset to start from (see list_presets)"`
	Controls          *config.Controls   `json:"controls,omitempty" jsonschema:"High-level dials in [0, 1]: conflict_intensity, defender_advantage, system_resilience. Applied before parameters"`
	Parameters        map[string]float64 `json:"parameters,omitempty" jsonschema:"Coefficient overrides by name: alpha beta gamma delta epsilon eta theta lambda mu nu xi rho sigma"`
	Initial           []float64          `json:"initial_state,omitempty" jsonschema:"Initial state [x0 y0 z0 u0], all positive"`
	TimeSpan          float64            `json:"time_span,omitempty" jsonschema:"Horizon in hours, at most 168 (default 24)"`
	Resolution        float64            `json:"resolution,omitempty" jsonschema:"Sample spacing in hours, at most 1 and at most time_span/10 (default 0.1)"`
	SolverMethod      string             `json:"solver_method,omitempty" jsonschema:"RK45, DOP853, Radau, BDF or LSODA (or the canonical names)"`
	IncludeTimeSeries bool               `json:"include_time_series,omitempty" jsonschema:"Include the full sampled trajectory in the answer"`
}

type ListPresetsInput struct{}

type EigenvalueInput struct {
	Real float64 `json:"real" jsonschema:"Real part"`
	Imag float64 `json:"imag,omitempty" jsonschema:"Imaginary part"`
}

type ClassifyInput struct {
	Eigenvalues []EigenvalueInput `json:"eigenvalues" jsonschema:"The eigenvalues to classify"`
}

// --- Output types ---

type SimulateOutput struct {
	Stability     analysis.Stability    `json:"stability"`
	Stable        bool                  `json:"stable"`
	Eigenvalues   []analysis.Eigenvalue `json:"eigenvalues"`
	Jacobian      [][]float64           `json:"jacobian"`
	Metadata      sim.Metadata          `json:"metadata"`
	Summary       metrics.Summary       `json:"summary"`
	DominantCycle *float64              `json:"dominant_period_hours,omitempty"`
	TimeSeries    *sim.TimeSeries       `json:"time_series,omitempty"`
}

// --- Handlers ---

func (t *Tools) Simulate(ctx context.Context, _ *mcp.CallToolRequest, input SimulateInput) (*mcp.CallToolResult, any, error) {
	req, err := input.request()
	if err != nil {
		return toolError("Invalid input: %v", err), nil, nil
	}

	res, err := t.Pool.Run(ctx, req)
	if err != nil {
		t.Log.Warn(ctx, "mcp simulate failed", logging.String("error_type", dynamo.Kind(err)), logging.Err(err))
		if dynamo.Kind(err) == "internal_error" {
			return toolError("internal_error: An unexpected error occurred"), nil, nil
		}
		return toolError("%s: %v", dynamo.Kind(err), err), nil, nil
	}

	out := SimulateOutput{
		Stability:   res.Stability,
		Stable:      res.Stability.Stable(),
		Eigenvalues: res.Eigenvalues,
		Jacobian:    res.Jacobian,
		Metadata:    res.Metadata,
		Summary:     metrics.Summarize(res.Trajectory, physics.ChannelNames[:]),
	}
	if period, ok := analysis.DominantPeriod(res.TimeSeries.X, req.Resolution); ok {
		out.DominantCycle = &period
	}
	if input.IncludeTimeSeries {
		out.TimeSeries = &res.TimeSeries
	}
	return toolJSON(out)
}

func (t *Tools) ListPresets(_ context.Context, _ *mcp.CallToolRequest, _ ListPresetsInput) (*mcp.CallToolResult, any, error) {
	names := config.ListPresets()
	out := make([]*config.Scenario, 0, len(names))
	for _, name := range names {
		out = append(out, config.GetPreset(name))
	}
	return toolJSON(out)
}

func (t *Tools) ClassifyEigenvalues(_ context.Context, _ *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, any, error) {
	if len(input.Eigenvalues) == 0 {
		return toolError("At least one eigenvalue is required"), nil, nil
	}
	vals := make([]analysis.Eigenvalue, len(input.Eigenvalues))
	for i, e := range input.Eigenvalues {
		vals[i] = analysis.Eigenvalue{Real: e.Real, Imag: e.Imag}
	}
	label := analysis.Classify(vals)
	return toolJSON(map[string]any{
		"stability": label,
		"stable":    label.Stable(),
	})
}

// request layers preset, controls, then overrides, onto the defaults.
func (in SimulateInput) request() (sim.Request, error) {
	req := sim.DefaultRequest()
	if in.Preset != "" {
		p := config.GetPreset(in.Preset)
		if p == nil {
			return req, fmt.Errorf("unknown preset %q (have %v)", in.Preset, config.ListPresets())
		}
		req = sim.FromScenario(p)
	}
	if in.Controls != nil {
		params, err := in.Controls.Apply(req.Params)
		if err != nil {
			return req, err
		}
		req.Params = params
	}
	for name, v := range in.Parameters {
		params, err := req.Params.With(name, v)
		if err != nil {
			return req, err
		}
		req.Params = params
	}
	if len(in.Initial) > 0 {
		if len(in.Initial) != 4 {
			return req, fmt.Errorf("initial_state needs 4 values, got %d", len(in.Initial))
		}
		req.X0, req.Y0, req.Z0, req.U0 = in.Initial[0], in.Initial[1], in.Initial[2], in.Initial[3]
	}
	if in.TimeSpan != 0 {
		req.TimeSpan = in.TimeSpan
	}
	if in.Resolution != 0 {
		req.Resolution = in.Resolution
	}
	if in.SolverMethod != "" {
		req.SolverMethod = in.SolverMethod
	}
	return req, nil
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
