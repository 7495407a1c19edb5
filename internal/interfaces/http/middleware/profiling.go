package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/hazina/backend/internal/infrastructure/telemetry"
)

// Profiling labels each request's CPU samples with its method and route
// pattern. Unmatched routes, /health and /metrics are left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/metrics" {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  route,
		}, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
