package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
	"github.com/san-kum/cyberdyn/internal/viz"
)

// ChannelColors are the stroke colors for x, y, z, u.
var ChannelColors = [4]string{"#2e86de", "#e74c3c", "#f39c12", "#27ae60"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) pad(frac float64) {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * frac
	b.maxX += rangeX * frac
	b.minY -= rangeY * frac
	b.maxY += rangeY * frac
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func svgHeader(sb *strings.Builder, width, height int, background string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func writePath(sb *strings.Builder, b bounds, xs, ys []float64, width, height int, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i := range xs {
		x, y := b.project(xs[i], ys[i], width, height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TimeSeriesSVG draws all four channels against time on shared axes with a
// legend and the stability label as a caption.
func TimeSeriesSVG(res *sim.Result, width, height int) string {
	ts := res.TimeSeries
	if ts.Len() < 2 {
		return ""
	}
	channels := [4][]float64{ts.X, ts.Y, ts.Z, ts.U}

	b := bounds{minX: ts.T[0], maxX: ts.T[len(ts.T)-1], minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, ch := range channels {
		for _, v := range ch {
			b.minY = math.Min(b.minY, v)
			b.maxY = math.Max(b.maxY, v)
		}
	}
	b.pad(0.05)

	var sb strings.Builder
	svgHeader(&sb, width, height, "#ffffff")
	for i, ch := range channels {
		writePath(&sb, b, ts.T, ch, width, height, ChannelColors[i])
	}
	for i, label := range physics.ChannelLabels {
		y := 18 + 16*i
		fmt.Fprintf(&sb, `<rect x="10" y="%d" width="10" height="10" fill="%s"/>
<text x="26" y="%d" font-family="sans-serif" font-size="12">%s</text>
`, y-9, ChannelColors[i], y, label)
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="12" text-anchor="end">%s (%s)</text>
`, width-10, height-10, res.Stability, res.Metadata.SolverMethod)
	sb.WriteString("</svg>")
	return sb.String()
}

// PhaseSVG draws a phase portrait as a single path.
func PhaseSVG(portrait *analysis.PhasePortrait2D, width, height int, strokeColor string) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}
	pts := portrait.Points
	b := bounds{minX: pts[0].X, maxX: pts[0].X, minY: pts[0].Y, maxY: pts[0].Y}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
		b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
		b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
	}
	b.pad(0.1)

	var sb strings.Builder
	svgHeader(&sb, width, height, "#0a0a0a")
	writePath(&sb, b, xs, ys, width, height, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per set dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := int(float64(canvas.Width) * scale * 2)   // 2 sub-pixels per char
	height := int(float64(canvas.Height) * scale * 4) // 4 sub-pixels per char

	var sb strings.Builder
	svgHeader(&sb, width, height, "#0a0a0a")
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
