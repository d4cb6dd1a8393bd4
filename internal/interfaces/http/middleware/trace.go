package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"book-factory/pkg/logger"
)

// TraceIDHeader 响应中回传的 trace id
const TraceIDHeader = "X-Trace-ID"

// Trace OpenTelemetry 追踪中间件
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceContext 把 trace/span id 写入日志上下文，并给 span 标上书籍与章节
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		sc := span.SpanContext()
		if !sc.IsValid() {
			c.Next()
			return
		}

		if id := c.Param("book_id"); id != "" {
			span.SetAttributes(attribute.String("book.id", id))
		}
		if id := c.Param("chapter_id"); id != "" {
			span.SetAttributes(attribute.String("chapter.id", id))
		}

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, sc.TraceID().String())
		ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(logger.TraceIDKey), sc.TraceID().String())
		c.Header(TraceIDHeader, sc.TraceID().String())

		c.Next()
	}
}
