package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/export"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
	"github.com/san-kum/cyberdyn/internal/viz"
)

func sortedMethods() []string {
	m := integrators.Methods()
	sort.Strings(m)
	return m
}

// simulate runs one request from flags and the config file.
func simulate(cmd *cobra.Command) (*sim.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	req, err := buildRequest(cmd, cfg)
	if err != nil {
		return nil, err
	}
	s := sim.New(sim.WithLogger(newLogger(cfg)))
	return s.Run(cmd.Context(), req)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	res, err := simulate(cmd)
	if err != nil {
		return err
	}

	series := [4][]float64{res.TimeSeries.X, res.TimeSeries.Y, res.TimeSeries.Z, res.TimeSeries.U}
	for i, data := range series {
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(physics.ChannelLabels[i]),
		)
		fmt.Println(viz.ChannelStyles[i].Render(graph))
		fmt.Println()
	}
	fmt.Println(viz.RenderSummary(res))
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		s := config.GetPreset(args[0])
		if s == nil {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		fmt.Printf("%s (%s)\n%s\n\nexpected: %s\n\n", s.Name, s.Key, s.Description, s.ExpectedOutcome)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		params := s.Params.Map()
		for _, name := range physics.ParamNames() {
			fmt.Fprintf(w, "%s\t%g\n", name, params[name])
		}
		fmt.Fprintf(w, "initial\t%v\n", s.Initial)
		fmt.Fprintf(w, "time_span\t%gh\n", s.TimeSpan)
		fmt.Fprintf(w, "resolution\t%gh\n", s.Resolution)
		fmt.Fprintf(w, "solver_method\t%s\n", s.SolverMethod)
		return w.Flush()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tHORIZON\tDESCRIPTION")
	for _, key := range config.ListPresets() {
		s := config.GetPreset(key)
		fmt.Fprintf(w, "%s\t%s\t%gh\t%s\n", key, s.Name, s.TimeSpan, s.Description)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	res, err := simulate(cmd)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		if outPath == "" {
			return export.WriteJSON(os.Stdout, res)
		}
		err = export.WriteJSONFile(outPath, res)
	case "csv":
		k, kerr := export.ParseKind(kind)
		if kerr != nil {
			return kerr
		}
		if outPath == "" {
			outPath = export.Filename(k, time.Now())
		}
		err = export.WriteCSVFile(outPath, res, k)
	case "svg":
		svg := export.TimeSeriesSVG(res, 900, 500)
		if outPath == "" {
			_, err = fmt.Print(svg)
			return err
		}
		err = os.WriteFile(outPath, []byte(svg), 0644)
	default:
		return fmt.Errorf("unknown format %q (json, csv, svg)", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	if xAxis < 0 || xAxis > 3 || yAxis < 0 || yAxis > 3 {
		return fmt.Errorf("axes must be within 0..3")
	}
	res, err := simulate(cmd)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("%s vs %s", physics.ChannelLabels[yAxis], physics.ChannelLabels[xAxis])
	if svgOut && dots {
		c := viz.PhaseCanvas(res, xAxis, yAxis, width, height)
		fmt.Print(export.CanvasToSVG(c, 6))
		return nil
	}
	if svgOut {
		portrait := analysis.NewPhasePortrait(res.Trajectory, xAxis, yAxis)
		fmt.Print(export.PhaseSVG(portrait, width*10, height*20, "#00d4ff"))
		return nil
	}
	fmt.Println(viz.Title.Render(caption))
	fmt.Print(viz.PhasePlot(res, xAxis, yAxis, width, height))
	fmt.Println(viz.StabilityBadge(res.Stability))
	return nil
}

func explore(cmd *cobra.Command, args []string) error {
	// log output would corrupt the alt screen
	s := sim.New(sim.WithLogger(logging.Noop()))
	_, err := tea.NewProgram(viz.NewExplorer(s), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
