package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/physics"
	"github.com/san-kum/cyberdyn/internal/sim"
)

var equations = []string{
	"dx/dt = αx + ρu - βxy - δxz",
	"dy/dt = γy + εyz - ηxy - σuy",
	"dz/dt = θy - λx - μz",
	"du/dt = νx - ξu",
}

func (s *Server) info(c *gin.Context) {
	variables := make([]string, len(physics.ChannelNames))
	for i, name := range physics.ChannelNames {
		variables[i] = fmt.Sprintf("%s(t): %s", name, physics.ChannelLabels[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Attack-a-litics API",
		"description": "Cyber warfare simulation using Lotka-Volterra dynamics",
		"version":     Version,
		"endpoints": gin.H{
			"health":     "/health",
			"simulation": "/simulate",
			"presets":    "/presets",
			"methods":    "/methods",
			"metrics":    "/metrics",
			"websocket":  "/ws",
		},
		"model": gin.H{
			"variables": variables,
			"equations": equations,
		},
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   Version,
		"timestamp": s.now().UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
	})
}

func (s *Server) methods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"methods": integrators.Methods(),
		"aliases": map[string]string{
			"RK45":   integrators.MethodRK45,
			"DOP853": integrators.MethodDOP853,
			"Radau":  integrators.MethodRadau,
			"BDF":    integrators.MethodBDF,
			"LSODA":  integrators.MethodLSODA,
		},
	})
}

func (s *Server) simulate(c *gin.Context) {
	req := sim.DefaultRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &dynamo.ValidationError{Message: "invalid request body: " + err.Error()})
		return
	}
	s.respond(c, req)
}

func (s *Server) respond(c *gin.Context, req sim.Request) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	res, err := s.pool.Run(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type presetSummary struct {
	Key             string         `json:"key"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ExpectedOutcome string         `json:"expected_outcome"`
	Parameters      physics.Params `json:"parameters"`
	InitialState    [4]float64     `json:"initial_state"`
	TimeSpan        float64        `json:"time_span"`
}

func (s *Server) listPresets(c *gin.Context) {
	names := config.ListPresets()
	out := make([]presetSummary, 0, len(names))
	for _, name := range names {
		p := config.GetPreset(name)
		out = append(out, presetSummary{
			Key:             p.Key,
			Name:            p.Name,
			Description:     p.Description,
			ExpectedOutcome: p.ExpectedOutcome,
			Parameters:      p.Params,
			InitialState:    p.Initial,
			TimeSpan:        p.TimeSpan,
		})
	}
	c.JSON(http.StatusOK, gin.H{"presets": out})
}

func (s *Server) getPreset(c *gin.Context) {
	p := config.GetPreset(c.Param("name"))
	if p == nil {
		c.JSON(http.StatusNotFound, ErrorBody{Error: "Not found", Message: "unknown preset " + c.Param("name"), Type: "not_found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// simulatePreset runs a preset. The query may override time_span and
// solver_method.
func (s *Server) simulatePreset(c *gin.Context) {
	p := config.GetPreset(c.Param("name"))
	if p == nil {
		c.JSON(http.StatusNotFound, ErrorBody{Error: "Not found", Message: "unknown preset " + c.Param("name"), Type: "not_found"})
		return
	}
	req := sim.FromScenario(p)
	var q struct {
		TimeSpan     *float64 `form:"time_span"`
		Resolution   *float64 `form:"resolution"`
		SolverMethod string   `form:"solver_method"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, &dynamo.ValidationError{Message: "invalid query: " + err.Error()})
		return
	}
	if q.TimeSpan != nil {
		req.TimeSpan = *q.TimeSpan
	}
	if q.Resolution != nil {
		req.Resolution = *q.Resolution
	}
	if q.SolverMethod != "" {
		req.SolverMethod = q.SolverMethod
	}
	s.respond(c, req)
}
