// Package mcpserver exposes the simulator as Model Context Protocol tools.
package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/sim"
)

const (
	Name    = "cyberdyn"
	Version = "1.0.0"
)

// New creates an MCP server with every tool registered. Runs go through pool,
// so MCP callers share the HTTP server's concurrency bound when both are up.
func New(pool *sim.Pool, log logging.Logger) *mcp.Server {
	if log == nil {
		log = logging.Noop()
	}
	t := &Tools{Pool: pool, Log: log}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "simulate",
		Description: "Run the four-variable cyber conflict model and return the stability classification, eigenvalues, final state and per-channel summary",
	}, t.Simulate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_presets",
		Description: "List the built-in conflict scenarios with their parameters and initial state",
	}, t.ListPresets)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "classify_eigenvalues",
		Description: "Classify the stability of a linearisation from its eigenvalues",
	}, t.ClassifyEigenvalues)

	return srv
}
