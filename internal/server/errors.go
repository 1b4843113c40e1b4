package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// errorBody maps an error from the simulator to a status code and body.
// Internal errors never expose their cause.
func errorBody(err error) (int, ErrorBody) {
	kind := dynamo.Kind(err)
	switch kind {
	case "validation_error":
		return http.StatusBadRequest, ErrorBody{Error: "Parameter validation failed", Message: err.Error(), Type: kind}
	case "solver_error":
		return http.StatusInternalServerError, ErrorBody{Error: "Solver failed", Message: err.Error(), Type: kind}
	case "simulation_error":
		code := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		return code, ErrorBody{Error: "Simulation failed", Message: err.Error(), Type: kind}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "Internal server error", Message: "An unexpected error occurred", Type: "internal_error"}
	}
}

func writeError(c *gin.Context, err error) {
	code, body := errorBody(err)
	c.JSON(code, body)
}
