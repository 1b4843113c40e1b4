package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/sim"
)

var (
	configFile string
	preset     string
	timeSpan   float64
	resolution float64
	method     string
	initial    []float64
	overrides  map[string]string

	// control dials
	intensity  float64
	advantage  float64
	resilience float64

	// export
	format  string
	kind    string
	outPath string

	// phase
	xAxis  int
	yAxis  int
	svgOut bool
	dots   bool
	width  int
	height int

	// serve / mcp
	addr      string
	transport string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cyberdyn",
		Short: "cyber conflict dynamics simulator",
		Long: "Simulates the defender, attacker, vulnerability and threat intelligence\n" +
			"populations of a cyber conflict and classifies the stability of the end state.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and print plots and a summary",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "run a simulation and write json, csv or svg",
		RunE:  exportRun,
	}
	addRunFlags(exportCmd)
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv or svg")
	exportCmd.Flags().StringVar(&kind, "kind", "timeseries", "csv table: timeseries, analysis or jacobian")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout, or a dated name for csv)")

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "plot one channel against another",
		RunE:  phasePlot,
	}
	addRunFlags(phaseCmd)
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis (0=x 1=y 2=z 3=u)")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().BoolVar(&svgOut, "svg", false, "write svg instead of braille art")
	phaseCmd.Flags().BoolVar(&dots, "dots", false, "with --svg, draw the braille dots instead of a path")
	phaseCmd.Flags().IntVar(&width, "width", 60, "plot width")
	phaseCmd.Flags().IntVar(&height, "height", 20, "plot height")

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive preset explorer",
		RunE:  explore,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "serve simulator tools over the Model Context Protocol",
		RunE:  serveMCP,
	}
	mcpCmd.Flags().StringVar(&transport, "transport", "stdio", "stdio or http")
	mcpCmd.Flags().StringVar(&addr, "addr", ":8081", "listen address for --transport http")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write the effective configuration as yaml",
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVarP(&outPath, "out", "o", "cyberdyn.yaml", "output file")

	rootCmd.AddCommand(runCmd, presetsCmd, exportCmd, phaseCmd, exploreCmd, serveCmd, mcpCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset scenario")
	cmd.Flags().Float64Var(&timeSpan, "time", 0, "simulation time in hours")
	cmd.Flags().Float64Var(&resolution, "resolution", 0, "output sample spacing in hours")
	cmd.Flags().StringVar(&method, "method", "", "solver method ("+strings.Join(sortedMethods(), ", ")+")")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "initial state x0,y0,z0,u0")
	cmd.Flags().Float64Var(&intensity, "conflict-intensity", 0, "conflict intensity dial in [0, 1]")
	cmd.Flags().Float64Var(&advantage, "defender-advantage", 0, "defender advantage dial in [0, 1]")
	cmd.Flags().Float64Var(&resilience, "system-resilience", 0, "system resilience dial in [0, 1]")
	cmd.Flags().StringToStringVar(&overrides, "set", nil, "coefficient overrides, e.g. --set beta=0.03,sigma=0.02")
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// buildRequest layers defaults, config file, preset and flags, later wins.
// Control dials start from the preset's settings and are applied before --set.
func buildRequest(cmd *cobra.Command, cfg *config.Config) (sim.Request, error) {
	req := sim.DefaultRequest()
	req.TimeSpan = cfg.Simulation.TimeSpan
	req.Resolution = cfg.Simulation.Resolution
	req.SolverMethod = cfg.Simulation.SolverMethod

	dials := config.DefaultControls()
	name := cfg.Simulation.Preset
	if preset != "" {
		name = preset
	}
	if name != "" {
		s := config.GetPreset(name)
		if s == nil {
			return req, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(config.ListPresets(), ", "))
		}
		req = sim.FromScenario(s)
		dials = s.Controls
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		req.TimeSpan = timeSpan
	}
	if flags.Changed("resolution") {
		req.Resolution = resolution
	}
	if flags.Changed("method") {
		req.SolverMethod = method
	}
	if flags.Changed("initial") {
		if len(initial) != 4 {
			return req, fmt.Errorf("--initial wants 4 values, got %d", len(initial))
		}
		req.X0, req.Y0, req.Z0, req.U0 = initial[0], initial[1], initial[2], initial[3]
	}
	if applyDials(cmd, &dials) {
		p, err := dials.Apply(req.Params)
		if err != nil {
			return req, err
		}
		req.Params = p
	}
	for k, v := range overrides {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("--set %s: %w", k, err)
		}
		p, err := req.Params.With(k, f)
		if err != nil {
			return req, err
		}
		req.Params = p
	}
	return req, nil
}

// applyDials copies any changed dial flags into c and reports whether one was set.
func applyDials(cmd *cobra.Command, c *config.Controls) bool {
	flags, changed := cmd.Flags(), false
	if flags.Changed("conflict-intensity") {
		c.ConflictIntensity, changed = intensity, true
	}
	if flags.Changed("defender-advantage") {
		c.DefenderAdvantage, changed = advantage, true
	}
	if flags.Changed("system-resilience") {
		c.SystemResilience, changed = resilience, true
	}
	return changed
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(cfg.Logging)
}
