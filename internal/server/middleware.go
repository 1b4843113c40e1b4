package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/logging"
)

const requestIDHeader = "X-Request-ID"

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(requestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, _ = logging.WithRequestLogger(ctx, s.log.With(
			logging.String("http_method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
		))
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, logging.RequestIDFromContext(ctx))
		c.Next()
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		s.collector.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), elapsed)
		logging.FromContext(c.Request.Context(), s.log).Debug(c.Request.Context(), "request served",
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", elapsed),
		)
	}
}

// recoveryMiddleware turns a handler panic into an internal_error body.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := &dynamo.InternalError{Wrapped: fmt.Errorf("panic: %v", r)}
				logging.FromContext(c.Request.Context(), s.log).Error(c.Request.Context(), "handler panicked", logging.Any("panic", r))
				writeError(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// corsAllows reports whether an origin is in the list. "*" matches any origin.
func corsAllows(origins []string) func(string) bool {
	wildcard := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}
	return func(origin string) bool { return wildcard || allowed[origin] }
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allows := corsAllows(origins)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allows(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
