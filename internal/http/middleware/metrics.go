package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/codecompanion-backend/internal/observability"
)

// Metrics instruments HTTP request counts and latency when metrics are enabled.
// Long-lived streams are counted once they end.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, c.FullPath(), observability.StatusLabel(c.Writer.Status()), time.Since(start))
	}
}
