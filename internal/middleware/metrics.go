package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"community_hub/internal/pkg"
)

// Metrics 以路由模板为 path 标签，避免 id 导致标签爆炸
func Metrics(m *pkg.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
