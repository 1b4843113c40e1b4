package viz

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/sim"
)

func runDefault(t *testing.T) *sim.Result {
	t.Helper()
	req := sim.DefaultRequest()
	req.TimeSpan = 12
	res, err := sim.New().Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestCanvas_SetIsSet(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.IsSet(1, 1) {
		t.Fatal("fresh canvas has a dot set")
	}
	c.Set(1, 1)
	c.Set(7, 7)
	c.Set(100, 100) // out of range is ignored
	if !c.IsSet(1, 1) || !c.IsSet(7, 7) {
		t.Error("set dots not reported")
	}
	if c.IsSet(0, 0) || c.IsSet(-1, 3) {
		t.Error("unset dots reported")
	}
	c.Clear()
	if c.IsSet(1, 1) {
		t.Error("Clear left a dot")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(5, 1)
	c.DrawLine(0, 0, 9, 0)
	for x := 0; x <= 9; x++ {
		if !c.IsSet(x, 0) {
			t.Fatalf("dot %d missing on horizontal line", x)
		}
	}
}

func TestCanvas_PlotCorners(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Plot([]float64{0, 1}, []float64{0, 1})
	// (0,0) maps to bottom left, (1,1) to top right.
	if !c.IsSet(0, 19) {
		t.Error("bottom-left dot missing")
	}
	if !c.IsSet(19, 0) {
		t.Error("top-right dot missing")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 5 {
		t.Errorf("String() rows = %d, want 5", lines)
	}
}

func TestCanvas_PlotFlat(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Plot([]float64{1, 1, 1}, []float64{2, 2, 2})
	if !c.IsSet(3, 4) {
		t.Error("constant curve should land in the middle")
	}
	NewCanvas(4, 2).Plot(nil, nil)
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	out := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	for _, r := range "▁█" {
		if !strings.ContainsRune(out, r) {
			t.Errorf("sparkline %q missing %q", out, r)
		}
	}
}

func TestStabilityBadge(t *testing.T) {
	for _, s := range analysis.Labels {
		if got := StabilityBadge(s); !strings.Contains(got, strings.ToUpper(string(s))) {
			t.Errorf("badge for %q = %q", s, got)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	res := runDefault(t)
	out := RenderSummary(res)
	for _, want := range []string{
		"Defender Capability",
		"Threat Intelligence",
		"Eigenvalues",
		"Jacobian at final state",
		res.Metadata.SolverMethod,
		strings.ToUpper(string(res.Stability)),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestPhasePlot(t *testing.T) {
	res := runDefault(t)
	out := PhasePlot(res, 0, 1, 30, 10)
	if strings.Count(out, "\n") != 10 {
		t.Errorf("phase plot rows = %d", strings.Count(out, "\n"))
	}
	if PhasePlot(res, 0, 9, 30, 10) != "" {
		t.Error("out-of-range channel should render nothing")
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, keys ...string) (tea.Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(key(k))
	}
	return m, cmd
}

func TestExplorer_Flow(t *testing.T) {
	m := NewExplorer(sim.New())
	if !strings.Contains(m.View(), "Attack-a-litics") {
		t.Fatal("menu view missing header")
	}

	m, _ = press(t, m, "enter")
	e := m.(explorer)
	if e.screen != screenConfig {
		t.Fatalf("screen = %d, want config", e.screen)
	}
	if e.req.TimeSpan <= 0 {
		t.Fatal("preset did not populate the request")
	}

	before := e.req.TimeSpan
	m, _ = press(t, m, "right")
	if got := m.(explorer).req.TimeSpan; got <= before {
		t.Errorf("right did not grow time_span: %g -> %g", before, got)
	}

	m, _ = press(t, m, "down", "down", "right")
	if got := m.(explorer).req.SolverMethod; got == e.req.SolverMethod {
		t.Errorf("method did not cycle from %s", got)
	}

	m, cmd := press(t, m, "enter")
	if m.(explorer).screen != screenRunning || cmd == nil {
		t.Fatal("enter should start a run")
	}
	msg := cmd()
	if r, ok := msg.(resultMsg); !ok || r.err != nil {
		t.Fatalf("run message = %#v", msg)
	}
	m, _ = m.Update(msg)
	e = m.(explorer)
	if e.screen != screenResult || e.res == nil {
		t.Fatal("result not shown")
	}

	for range viewCount {
		if e.View() == "" {
			t.Errorf("view %d rendered nothing", e.view)
		}
		m, _ = press(t, m, "tab")
		e = m.(explorer)
	}
	m, _ = press(t, m, "3")
	if m.(explorer).channel != 2 {
		t.Errorf("channel = %d, want 2", m.(explorer).channel)
	}
}

func TestExplorer_EditField(t *testing.T) {
	m := NewExplorer(sim.New())
	m, _ = press(t, m, "enter", "e")
	e := m.(explorer)
	if !e.editing {
		t.Fatal("e should start editing")
	}
	e.editBuf = ""
	m, _ = press(t, e, "2", "4", "enter")
	if got := m.(explorer).req.TimeSpan; got != 24 {
		t.Errorf("time_span = %g, want 24", got)
	}
}

func TestExplorer_EditCoefficient(t *testing.T) {
	m := NewExplorer(sim.New())
	m, _ = press(t, m, "enter", "down", "down", "down", "e")
	e := m.(explorer)
	if e.fields[e.fieldCursor] != "alpha" {
		t.Fatalf("cursor on %s, want alpha", e.fields[e.fieldCursor])
	}
	before := e.req.Params.Alpha

	e.editBuf = ""
	m, _ = press(t, e, "-", "1", "enter")
	if got := m.(explorer).req.Params.Alpha; got != before {
		t.Errorf("negative alpha accepted: %g", got)
	}

	m, _ = press(t, m, "e")
	e = m.(explorer)
	e.editBuf = ""
	m, _ = press(t, e, "0", ".", "2", "enter")
	if got := m.(explorer).req.Params.Alpha; got != 0.2 {
		t.Errorf("alpha = %g, want 0.2", got)
	}
}

func TestExplorer_InvalidRunShowsError(t *testing.T) {
	m := NewExplorer(sim.New())
	m, _ = press(t, m, "enter")
	e := m.(explorer)
	e.req.TimeSpan = -1
	if !strings.Contains(e.View(), "time_span") {
		t.Error("config view should surface validation errors")
	}
	m, cmd := press(t, e, "enter")
	m, _ = m.Update(cmd())
	if m.(explorer).err == nil || !strings.Contains(m.View(), "simulation failed") {
		t.Error("failed run not reported")
	}
}

func TestExplorer_Quit(t *testing.T) {
	_, cmd := press(t, NewExplorer(sim.New()), "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}
