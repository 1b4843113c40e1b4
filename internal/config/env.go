package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides cfg from the process environment.
func (c *Config) ApplyEnv() error { return c.applyEnv(os.Getenv) }

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("CYBERDYN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("CYBERDYN_GRPC_ADDR"); v != "" {
		c.Server.GRPCAddr = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	if v := getenv("CYBERDYN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("CYBERDYN_WORKERS: want a positive integer, got %q", v)
		}
		c.Server.Workers = n
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := getenv("CYBERDYN_TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CYBERDYN_TRACING_ENABLED: %w", err)
		}
		c.Tracing.Enabled = enabled
	}
	if v := getenv("CYBERDYN_TRACING_EXPORTER"); v != "" {
		c.Tracing.Exporter = strings.ToLower(v)
	}
	if v := getenv("CYBERDYN_OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	return nil
}
