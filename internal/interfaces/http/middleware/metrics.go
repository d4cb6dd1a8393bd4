package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"book-factory/pkg/metrics"
)

// Metrics 记录请求数与耗时；skip 中的路由（探活、/metrics 自身）不计入。
// 未匹配路由统一记为 unmatched，避免路径基数失控。
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
