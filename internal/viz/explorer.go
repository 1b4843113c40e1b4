package viz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
)

type screen int

const (
	screenMenu screen = iota
	screenConfig
	screenRunning
	screenResult
)

type view int

const (
	viewSeries view = iota
	viewPhase
	viewSummary
	viewCount
)

// field names edited on the config screen, coefficients follow these
const (
	fieldTimeSpan   = "time_span"
	fieldResolution = "resolution"
	fieldMethod     = "solver_method"
)

type resultMsg struct {
	res *sim.Result
	err error
}

type explorer struct {
	sim *sim.Simulator

	screen  screen
	presets []string
	cursor  int

	req         sim.Request
	fields      []string
	fieldCursor int
	editing     bool
	editBuf     string

	res     *sim.Result
	err     error
	view    view
	channel int

	width  int
	height int
}

// NewExplorer builds the interactive preset explorer. Runs go through s.
func NewExplorer(s *sim.Simulator) tea.Model {
	fields := append([]string{fieldTimeSpan, fieldResolution, fieldMethod}, physics.ParamNames()...)
	return explorer{
		sim:     s,
		presets: config.ListPresets(),
		req:     sim.DefaultRequest(),
		fields:  fields,
		width:   80,
		height:  24,
	}
}

func (m explorer) Init() tea.Cmd { return nil }

func (m explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case resultMsg:
		m.res, m.err = msg.res, msg.err
		m.screen = screenResult
		m.view = viewSeries
	}
	return m, nil
}

func (m explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMenu:
		return m.menuKey(msg)
	case screenConfig:
		return m.configKey(msg)
	case screenResult:
		return m.resultKey(msg)
	}
	return m, nil
}

func (m explorer) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.req = sim.FromScenario(config.GetPreset(m.presets[m.cursor]))
		m.fieldCursor = 0
		m.screen = screenConfig
	}
	return m, nil
}

func (m explorer) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.set(m.fields[m.fieldCursor], v)
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 {
				c := s[0]
				if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == '-' {
					m.editBuf += s
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.screen = screenMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "left", "h":
		m.nudge(m.fields[m.fieldCursor], -1)
	case "right", "l":
		m.nudge(m.fields[m.fieldCursor], 1)
	case "e":
		if name := m.fields[m.fieldCursor]; name != fieldMethod {
			m.editing = true
			m.editBuf = strconv.FormatFloat(m.get(name), 'g', -1, 64)
		}
	case "enter", "s":
		m.screen = screenRunning
		return m, m.run()
	}
	return m, nil
}

func (m explorer) resultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "c":
		m.screen = screenConfig
	case "tab":
		m.view = (m.view + 1) % viewCount
	case "1", "2", "3", "4":
		m.channel = int(msg.String()[0] - '1')
	case "r":
		m.screen = screenRunning
		return m, m.run()
	}
	return m, nil
}

func (m explorer) run() tea.Cmd {
	s, req := m.sim, m.req
	return func() tea.Msg {
		res, err := s.Run(context.Background(), req)
		return resultMsg{res: res, err: err}
	}
}

func (m *explorer) get(name string) float64 {
	switch name {
	case fieldTimeSpan:
		return m.req.TimeSpan
	case fieldResolution:
		return m.req.Resolution
	}
	return m.model().GetParams()[name]
}

// model exposes the request's coefficients through the model's own setters.
func (m *explorer) model() *physics.CyberWar {
	return physics.NewCyberWar(m.req.Params)
}

func (m *explorer) set(name string, v float64) {
	switch name {
	case fieldTimeSpan:
		m.req.TimeSpan = v
	case fieldResolution:
		m.req.Resolution = v
	default:
		model := m.model()
		if err := configure(model, name, v); err == nil {
			m.req.Params = model.Params()
		}
	}
}

func configure(c dynamo.Configurable, name string, v float64) error {
	return c.SetParam(name, v)
}

// nudge steps a numeric field by 10% or cycles the solver method.
func (m *explorer) nudge(name string, dir int) {
	if name == fieldMethod {
		methods := integrators.Methods()
		canonical, _ := integrators.Canonical(m.req.SolverMethod)
		i := 0
		for k, method := range methods {
			if method == canonical {
				i = k
			}
		}
		i = (i + dir + len(methods)) % len(methods)
		m.req.SolverMethod = methods[i]
		return
	}
	v := m.get(name)
	if dir > 0 {
		v *= 1.1
	} else {
		v /= 1.1
	}
	m.set(name, v)
}

func (m explorer) View() string {
	switch m.screen {
	case screenConfig:
		return m.configView()
	case screenRunning:
		return Panel.Render(Title.Render("Simulating...") + "\n" +
			Subtle.Render(fmt.Sprintf("%s over %gh", m.req.SolverMethod, m.req.TimeSpan)))
	case screenResult:
		return m.resultView()
	}
	return m.menuView()
}

func (m explorer) menuView() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Attack-a-litics") + "\n\n")
	for i, key := range m.presets {
		p := config.GetPreset(key)
		line := fmt.Sprintf("%-22s %s", p.Name, Subtle.Render(p.Description))
		if i == m.cursor {
			b.WriteString(Selected.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + KeyHint.Render("↑/↓ move • enter select • q quit"))
	return b.String()
}

func (m explorer) configView() string {
	var b strings.Builder
	b.WriteString(Title.Render("Configure run") + "\n\n")
	for i, name := range m.fields {
		var value string
		switch {
		case name == fieldMethod:
			value = m.req.SolverMethod
		case m.editing && i == m.fieldCursor:
			value = m.editBuf + "▏"
		default:
			value = strconv.FormatFloat(m.get(name), 'g', 6, 64)
		}
		line := fmt.Sprintf("%-14s %s", name, MetricValue.Render(value))
		if i == m.fieldCursor {
			b.WriteString(Selected.Render("› ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if err := m.req.Validate(); err != nil {
		b.WriteString("\n" + ErrorStyle.Render(err.Error()) + "\n")
	}
	b.WriteString("\n" + KeyHint.Render("←/→ adjust • e edit • enter run • esc back"))
	return b.String()
}

func (m explorer) resultView() string {
	if m.err != nil {
		return Panel.Render(ErrorStyle.Render("simulation failed") + "\n" + m.err.Error() +
			"\n\n" + KeyHint.Render("esc back • q quit"))
	}
	var body string
	switch m.view {
	case viewSeries:
		body = m.seriesView()
	case viewPhase:
		a, b := m.channel, (m.channel+1)%4
		body = Title.Render(fmt.Sprintf("%s vs %s", physics.ChannelLabels[b], physics.ChannelLabels[a])) +
			"\n" + PhasePlot(m.res, a, b, max(m.width-4, 20), max(m.height-8, 8))
	case viewSummary:
		body = RenderSummary(m.res)
	}
	return body + "\n" + KeyHint.Render("tab view • 1-4 channel • r rerun • esc config • q quit")
}

func (m explorer) seriesView() string {
	series := [4][]float64{m.res.TimeSeries.X, m.res.TimeSeries.Y, m.res.TimeSeries.Z, m.res.TimeSeries.U}
	data := series[m.channel]
	if len(data) == 0 {
		return ""
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(max(m.height-10, 6)),
		asciigraph.Width(max(m.width-14, 20)),
		asciigraph.Caption(physics.ChannelLabels[m.channel]),
	)
	return ChannelStyles[m.channel].Render(graph) + "\n" +
		MetricLabel.Render("stability: ") + StabilityBadge(m.res.Stability)
}
