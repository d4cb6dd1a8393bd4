package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker 可探活的依赖
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version  string
	db       HealthChecker
	optional map[string]HealthChecker
}

// NewHealthHandler db 为必需依赖；optional 中的依赖故障只会降级，不影响就绪态
func NewHealthHandler(version string, db HealthChecker, optional map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, db: db, optional: optional}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready 就绪检查接口
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]*readinessCheck, len(h.optional)+1)
	ready := true

	// 数据库（必需）
	if h.db == nil {
		checks["database"] = &readinessCheck{Status: "missing", Error: "database client not configured"}
		ready = false
	} else {
		checks["database"] = probe(ctx, h.db, "error")
		ready = checks["database"].Status == "ok"
	}

	// Redis、Milvus（可选）
	for name, dep := range h.optional {
		if dep == nil {
			checks[name] = &readinessCheck{Status: "unavailable"}
			continue
		}
		checks[name] = probe(ctx, dep, "degraded")
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func probe(ctx context.Context, dep HealthChecker, failStatus string) *readinessCheck {
	start := time.Now()
	err := dep.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = failStatus
		check.Error = err.Error()
	}
	return check
}

// Live 存活检查接口
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
