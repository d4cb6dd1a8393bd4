// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"book-factory/pkg/logger"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 沿用上游的请求 ID，没有时生成一个，并写入日志上下文
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(string(logger.RequestIDKey), requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RouteContext 把路径中的 book_id / chapter_id 带进日志上下文
func RouteContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.Param("book_id"); id != "" {
			ctx = logger.WithContext(ctx, logger.BookIDKey, id)
		}
		if id := c.Param("chapter_id"); id != "" {
			ctx = logger.WithContext(ctx, logger.ChapterIDKey, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
