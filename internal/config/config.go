package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/observability"
)

const (
	DefaultAddr           = ":8000"
	DefaultGRPCAddr       = ""
	DefaultWorkers        = 4
	DefaultRequestTimeout = 30 * time.Second

	DefaultTimeSpan     = 24.0
	DefaultResolution   = 0.1
	DefaultSolverMethod = "explicit-RK45"
)

// SearchPaths are tried in order by LoadDefault.
var SearchPaths = []string{"cyberdyn.yaml", "cyberdyn.yml", ".cyberdyn.yaml"}

type Config struct {
	Server     ServerConfig                `yaml:"server"`
	Logging    logging.Config              `yaml:"logging"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
	Simulation SimulationConfig            `yaml:"simulation"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	GRPCAddr       string        `yaml:"grpc_addr"` // empty disables the gRPC health endpoint
	CORSOrigins    []string      `yaml:"cors_origins"`
	Workers        int           `yaml:"workers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SimulationConfig holds CLI defaults. Preset, when set, supplies the
// parameter set and initial state.
type SimulationConfig struct {
	Preset       string  `yaml:"preset"`
	TimeSpan     float64 `yaml:"time_span"`
	Resolution   float64 `yaml:"resolution"`
	SolverMethod string  `yaml:"solver_method"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultAddr,
			GRPCAddr:       DefaultGRPCAddr,
			CORSOrigins:    []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			Workers:        DefaultWorkers,
			RequestTimeout: DefaultRequestTimeout,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Tracing: observability.TracingConfig{
			ServiceName: "cyberdyn",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		Simulation: SimulationConfig{
			TimeSpan:     DefaultTimeSpan,
			Resolution:   DefaultResolution,
			SolverMethod: DefaultSolverMethod,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the first file in SearchPaths that exists, falling back
// to DefaultConfig.
func LoadDefault() (*Config, error) {
	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return DefaultConfig(), nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be at least 1, got %d", c.Server.Workers)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", r)
	}
	if c.Simulation.Preset != "" && GetPreset(c.Simulation.Preset) == nil {
		return fmt.Errorf("simulation.preset: unknown preset %q", c.Simulation.Preset)
	}
	return nil
}
