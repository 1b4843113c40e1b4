package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/cyberdyn/internal/analysis"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff00ff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ChannelStyles color x, y, z, u the same way everywhere.
var ChannelStyles = [4]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#2e86de")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#27ae60")).Bold(true),
}

// StabilityBadge renders a label green when stable, red when anything
// diverges, amber otherwise.
func StabilityBadge(s analysis.Stability) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch s {
	case analysis.StableNode, analysis.SpiralSink:
		style = style.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00ff88"))
	case analysis.UnstableNode, analysis.SpiralSource, analysis.SaddlePoint, analysis.SpiralSaddle:
		style = style.Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#cc2222"))
	default:
		style = style.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffcc00"))
	}
	return style.Render(strings.ToUpper(string(s)))
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}
	return result.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
