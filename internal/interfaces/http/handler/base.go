// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"book-factory/internal/interfaces/http/view"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
)

// isHTMX 是否为 htmx 发起的局部请求
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// errorStatus AppError 的状态码，未知错误为 500
func errorStatus(err error) (int, string) {
	if appErr := apperrors.AsAppError(err); appErr != nil {
		return appErr.HTTPStatus, appErr.UserMessage()
	}
	return http.StatusInternalServerError, "internal server error"
}

// renderError htmx 请求返回错误片段，整页请求返回错误页
func renderError(c *gin.Context, v *view.Renderer, err error) {
	status, msg := errorStatus(err)
	renderErrorStatus(c, v, status, msg, err)
}

func renderErrorStatus(c *gin.Context, v *view.Renderer, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err, "path", c.FullPath())
	} else {
		logger.Debug(c.Request.Context(), "request rejected", "path", c.FullPath(), "status", status, "reason", msg)
	}

	name := "error_page"
	if isHTMX(c) {
		name = "error_partial"
	}
	v.HTML(c, status, name, gin.H{"Message": msg})
}

// redirect htmx 通过 HX-Redirect 跳转，普通请求用 303
func redirect(c *gin.Context, location string) {
	if isHTMX(c) {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
