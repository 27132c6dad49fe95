package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/observability"
)

const (
	CallerAuthenticated = "authenticated"
	CallerAnonymous     = "anonymous"

	unmatchedRoute = "unmatched"
)

// Metrics records request counts and latency per route template. Scrapes and
// health probes in skipPaths are not counted. Requests that match no route
// share one label so random paths cannot grow the series set.
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		observability.RecordHTTPRequest(
			c.Request.Method,
			route,
			callerKind(c),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// callerKind reads the identity set by JWTAuth or OptionalJWTAuth further
// down the chain.
func callerKind(c *gin.Context) string {
	if _, ok := c.Get(ContextUserID); ok {
		return CallerAuthenticated
	}
	return CallerAnonymous
}
