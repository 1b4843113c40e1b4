package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/metrics"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
)

const sparkWidth = 32

func trajectoryOf(res *sim.Result) *dynamo.Trajectory {
	if res.Trajectory != nil {
		return res.Trajectory
	}
	return res.TimeSeries.Trajectory()
}

// RenderSummary lays out a finished run: stability, per-channel statistics
// with sparklines, eigenvalues, the Jacobian and solver work.
func RenderSummary(res *sim.Result) string {
	var b strings.Builder
	md := res.Metadata

	b.WriteString(HeaderStyle.Render("Cyber Conflict Simulation") + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", MetricLabel.Render("Stability:"), StabilityBadge(res.Stability))
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n\n",
		MetricLabel.Render("Method:"), MetricValue.Render(md.SolverMethod),
		MetricLabel.Render("Horizon:"), MetricValue.Render(fmt.Sprintf("%gh", md.SimulationTime)),
		MetricLabel.Render("Points:"), MetricValue.Render(fmt.Sprintf("%d", md.DataPoints)),
	)

	sum := metrics.Summarize(trajectoryOf(res), physics.ChannelNames[:])
	channels := [4][]float64{res.TimeSeries.X, res.TimeSeries.Y, res.TimeSeries.Z, res.TimeSeries.U}
	for i, ch := range sum.Channels {
		line := fmt.Sprintf("%-22s final %10.4f  peak %10.4f @ %6.2fh  mean %10.4f",
			physics.ChannelLabels[i], ch.Final, ch.Peak, ch.PeakTime, ch.Mean)
		if period, ok := analysis.DominantPeriod(channels[i], md.Resolution); ok && period < md.SimulationTime {
			line += fmt.Sprintf("  cycle %.2fh", period)
		}
		b.WriteString(ChannelStyles[i].Render(ch.Name) + " " + line + "\n")
		b.WriteString("  " + SparklineChart(channels[i], sparkWidth) + "\n")
	}
	if sum.NegativeSamples > 0 {
		fmt.Fprintf(&b, "%s\n", Subtle.Render(fmt.Sprintf("%d samples with a negative component", sum.NegativeSamples)))
	}

	b.WriteString("\n" + Separator(64) + "\n")
	b.WriteString(Title.Render("Eigenvalues") + "\n")
	for i, e := range res.Eigenvalues {
		fmt.Fprintf(&b, "  λ%d = %s\n", i+1, MetricValue.Render(e.String()))
	}

	b.WriteString("\n" + Title.Render("Jacobian at final state") + "\n")
	b.WriteString(renderMatrix(res.Jacobian))

	b.WriteString("\n" + Subtle.Render(fmt.Sprintf("%d steps (%d rejected), %d evaluations, %d jacobians, %d LU",
		md.Stats.Steps, md.Stats.Rejected, md.Stats.Evaluations, md.Stats.Jacobians, md.Stats.Factorizations)))
	for _, w := range md.Warnings {
		b.WriteString("\n" + ErrorStyle.Render("warning: ") + w)
	}
	return Panel.Render(b.String())
}

func renderMatrix(m [][]float64) string {
	rows := make([]string, len(m))
	for i, row := range m {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%12.6f", v)
		}
		rows[i] = "  [" + strings.Join(cells, " ") + " ]"
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

// PhaseCanvas plots channel b against channel a on a Braille canvas. It
// returns nil when either index is out of range.
func PhaseCanvas(res *sim.Result, a, b, width, height int) *Canvas {
	p := analysis.NewPhasePortrait(trajectoryOf(res), a, b)
	if p == nil {
		return nil
	}
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	c := NewCanvas(width, height)
	c.Plot(xs, ys)
	return c
}

func PhasePlot(res *sim.Result, a, b, width, height int) string {
	c := PhaseCanvas(res, a, b, width, height)
	if c == nil {
		return ""
	}
	return c.String()
}
