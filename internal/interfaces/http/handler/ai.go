package handler

import (
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"book-factory/internal/application/assistant"
	"book-factory/internal/interfaces/http/dto"
)

// AIHandler 向导中的 AI 建议与点评
type AIHandler struct {
	assistant *assistant.Service
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(assistant *assistant.Service) *AIHandler {
	return &AIHandler{assistant: assistant}
}

// Suggest 返回字段建议值（HTML 文本）
func (h *AIHandler) Suggest(c *gin.Context) {
	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	text, err := h.assistant.Suggest(c.Request.Context(), req.FieldName, req.Context)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html.EscapeString(text)))
}

// Comment 返回对用户输入的点评（HTML 文本），失败时为空
func (h *AIHandler) Comment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	step := req.Step
	if step == "" {
		step = assistant.StepIdea
	}
	text := h.assistant.Comment(c.Request.Context(), step, req.UserInput)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html.EscapeString(text)))
}
