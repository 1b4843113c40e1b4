package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/sim"
	"github.com/san-kum/cyberdyn/internal/viz"
)

func run(t *testing.T) *sim.Result {
	t.Helper()
	req := sim.DefaultRequest()
	req.TimeSpan = 5
	res, err := sim.New().Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func readCSV(t *testing.T, res *sim.Result, kind Kind) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res, kind); err != nil {
		t.Fatalf("WriteCSV(%s): %v", kind, err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", kind, err)
	}
	return rows
}

func TestJSONRoundTrip(t *testing.T) {
	res := run(t)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"time_series\"") {
		t.Error("output is not indented")
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stability != res.Stability || got.TimeSeries.Len() != res.TimeSeries.Len() {
		t.Errorf("round trip lost data: %s %d", got.Stability, got.TimeSeries.Len())
	}
	if len(got.Eigenvalues) != 4 {
		t.Errorf("eigenvalues = %d", len(got.Eigenvalues))
	}
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSONFile(path, run(t)); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("file not written: %v", err)
	}
}

func TestCSV_TimeSeries(t *testing.T) {
	res := run(t)
	rows := readCSV(t, res, KindTimeSeries)
	want := []string{"Time (hours)", "Defender Capability", "Attacker Capability", "System Vulnerability", "Threat Intelligence"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Errorf("header = %v", rows[0])
	}
	if len(rows) != res.TimeSeries.Len()+1 {
		t.Errorf("rows = %d, want %d", len(rows), res.TimeSeries.Len()+1)
	}
	if rows[1][0] != "0" || rows[1][1] != "100" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestCSV_Analysis(t *testing.T) {
	res := run(t)
	rows := readCSV(t, res, KindAnalysis)
	if rows[0][0] != "Metric" || rows[1][1] != string(res.Stability) {
		t.Errorf("analysis rows = %v", rows[:2])
	}
	if len(rows) != 6+len(res.Eigenvalues) {
		t.Errorf("rows = %d", len(rows))
	}
	if rows[len(rows)-1][0] != "Eigenvalue 4" {
		t.Errorf("last row = %v", rows[len(rows)-1])
	}
}

func TestCSV_Jacobian(t *testing.T) {
	rows := readCSV(t, run(t), KindJacobian)
	if len(rows) != 5 || rows[0][1] != "Defender" || rows[4][0] != "Intelligence" {
		t.Errorf("jacobian rows = %v", rows)
	}
	if !strings.Contains(rows[1][1], ".") || len(strings.SplitN(rows[1][1], ".", 2)[1]) != 6 {
		t.Errorf("cell %q not formatted with 6 decimals", rows[1][1])
	}
}

func TestEigenString(t *testing.T) {
	tests := []struct {
		re, im float64
		real   bool
		want   string
	}{
		{-0.5, 0, true, "-0.500000"},
		{0.1, 0.25, false, "0.100000+0.250000i"},
		{0.1, -0.25, false, "0.100000-0.250000i"},
	}
	for _, tt := range tests {
		if got := eigenString(tt.re, tt.im, tt.real); got != tt.want {
			t.Errorf("eigenString(%v, %v) = %q, want %q", tt.re, tt.im, got, tt.want)
		}
	}
}

func TestParseKindAndFilename(t *testing.T) {
	for _, k := range Kinds {
		if got, err := ParseKind(string(k)); err != nil || got != k {
			t.Errorf("ParseKind(%s) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("xml"); err == nil {
		t.Error("expected error for unknown kind")
	}
	day := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	if got := Filename(KindAnalysis, day); got != "attack_a_litics_analysis_2024-03-01.csv" {
		t.Errorf("Filename = %s", got)
	}
	if err := WriteCSV(&bytes.Buffer{}, run(t), Kind("bogus")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestTimeSeriesSVG(t *testing.T) {
	res := run(t)
	svg := TimeSeriesSVG(res, 600, 300)
	if !strings.Contains(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %.40q", svg)
	}
	if n := strings.Count(svg, "<path"); n != 4 {
		t.Errorf("paths = %d, want 4", n)
	}
	if !strings.Contains(svg, string(res.Stability)) {
		t.Error("caption missing stability")
	}
	if TimeSeriesSVG(&sim.Result{}, 600, 300) != "" {
		t.Error("empty result should render nothing")
	}
}

func TestPhaseSVG(t *testing.T) {
	res := run(t)
	svg := PhaseSVG(analysis.NewPhasePortrait(res.Trajectory, 0, 1), 400, 400, "#00d4ff")
	if strings.Count(svg, "<path") != 1 || !strings.Contains(svg, "#00d4ff") {
		t.Errorf("phase svg = %.80q", svg)
	}
	if PhaseSVG(nil, 400, 400, "#fff") != "" {
		t.Error("nil portrait should render nothing")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 4)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("circles = %d, want 2", n)
	}
	if !strings.Contains(svg, `width="16"`) {
		t.Errorf("unexpected size: %.80q", svg)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render nothing")
	}
}
