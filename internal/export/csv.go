package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
)

// Kind selects which table WriteCSV produces.
type Kind string

const (
	KindTimeSeries Kind = "timeseries"
	KindAnalysis   Kind = "analysis"
	KindJacobian   Kind = "jacobian"
)

var Kinds = []Kind{KindTimeSeries, KindAnalysis, KindJacobian}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export kind %q (want timeseries, analysis or jacobian)", s)
}

// Filename is the conventional name for a CSV export made on day.
func Filename(kind Kind, day time.Time) string {
	return fmt.Sprintf("attack_a_litics_%s_%s.csv", kind, day.Format("2006-01-02"))
}

var jacobianNames = []string{"Defender", "Attacker", "Vulnerability", "Intelligence"}

func WriteCSV(w io.Writer, res *sim.Result, kind Kind) error {
	var rows [][]string
	switch kind {
	case KindTimeSeries:
		rows = timeSeriesRows(res)
	case KindAnalysis:
		rows = analysisRows(res)
	case KindJacobian:
		rows = jacobianRows(res)
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s csv: %w", kind, err)
	}
	return nil
}

func WriteCSVFile(path string, res *sim.Result, kind Kind) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, res, kind); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func timeSeriesRows(res *sim.Result) [][]string {
	ts := res.TimeSeries
	header := []string{"Time (hours)"}
	header = append(header, physics.ChannelLabels[:]...)
	rows := [][]string{header}
	for i := range ts.T {
		rows = append(rows, []string{
			num(ts.T[i]), num(ts.X[i]), num(ts.Y[i]), num(ts.Z[i]), num(ts.U[i]),
		})
	}
	return rows
}

func analysisRows(res *sim.Result) [][]string {
	md := res.Metadata
	rows := [][]string{
		{"Metric", "Value"},
		{"Stability Classification", string(res.Stability)},
		{"Simulation Time", num(md.SimulationTime)},
		{"Data Points", strconv.Itoa(md.DataPoints)},
		{"Solver Method", md.SolverMethod},
		{"Solver Success", strconv.FormatBool(md.SolverSuccess)},
	}
	for i, e := range res.Eigenvalues {
		rows = append(rows, []string{fmt.Sprintf("Eigenvalue %d", i+1), eigenString(e.Real, e.Imag, e.IsReal())})
	}
	return rows
}

func jacobianRows(res *sim.Result) [][]string {
	rows := [][]string{append([]string{"Variable"}, jacobianNames...)}
	for i, row := range res.Jacobian {
		name := fmt.Sprintf("Row %d", i+1)
		if i < len(jacobianNames) {
			name = jacobianNames[i]
		}
		r := []string{name}
		for _, v := range row {
			r = append(r, strconv.FormatFloat(v, 'f', 6, 64))
		}
		rows = append(rows, r)
	}
	return rows
}

func eigenString(re, im float64, real bool) string {
	if real {
		return strconv.FormatFloat(re, 'f', 6, 64)
	}
	sign := "+"
	if im < 0 {
		sign, im = "-", -im
	}
	return fmt.Sprintf("%.6f%s%.6fi", re, sign, im)
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
