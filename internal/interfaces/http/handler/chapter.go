package handler

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"book-factory/internal/application/chapter"
	"book-factory/internal/domain/entity"
	"book-factory/internal/interfaces/http/dto"
	"book-factory/internal/interfaces/http/view"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
)

// SSE 结束事件的固定文案
const (
	StreamFinishedData = "Stream finished."
	StreamErrorData    = "An error occurred during streaming."
)

// ChapterHandler 章节阅读与流式写作
type ChapterHandler struct {
	chapters *chapter.Service
	view     *view.Renderer
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(chapters *chapter.Service, v *view.Renderer) *ChapterHandler {
	return &ChapterHandler{chapters: chapters, view: v}
}

// View 章节阅读页
func (h *ChapterHandler) View(c *gin.Context) {
	v, err := h.chapters.View(c.Request.Context(), c.Param("book_id"), c.Param("chapter_id"))
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "chapter_view", gin.H{
		"Book":    v.Book,
		"Chapter": v.Chapter,
		"Prev":    v.Prev,
		"Next":    v.Next,
	})
}

// Write 写作室页面
func (h *ChapterHandler) Write(c *gin.Context) {
	b, ch, err := h.chapters.Get(c.Request.Context(), c.Param("book_id"), c.Param("chapter_id"))
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "write_room", gin.H{"Book": b, "Chapter": ch})
}

// Generate 进入写作状态，返回连接 SSE 的容器
func (h *ChapterHandler) Generate(c *gin.Context) {
	var form dto.ChapterGenerateForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	part, err := entity.ParsePart(form.Part)
	if err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	b, ch, err := h.chapters.BeginWriting(c.Request.Context(), c.Param("book_id"), c.Param("chapter_id"), part, form.UserDirectives)
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "stream", gin.H{
		"StreamURL": StreamURL(b.ID, ch.ID, part, ch.UserDirectives),
	})
}

// StreamURL 流式写作接口地址
func StreamURL(bookID, chapterID string, part entity.ChapterPart, directives string) string {
	return fmt.Sprintf("/book/%s/chapter/%s/generate-stream?part=%d&user_directives=%s",
		bookID, chapterID, int(part), url.QueryEscape(directives))
}

// Stream 以 SSE 推送生成内容。
// 响应头在第一个事件时才写出，之前的错误仍按普通 HTTP 错误返回。
func (h *ChapterHandler) Stream(c *gin.Context) {
	var q dto.ChapterGenerateForm
	if err := c.ShouldBindQuery(&q); err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	part, err := entity.ParsePart(q.Part)
	if err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	chapterID := c.Param("chapter_id")
	started := false
	emit := func(ev chapter.Event) error {
		if !started {
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			started = true
		}

		data := ev.Data
		switch ev.Type {
		case chapter.EventMessage:
			data = html.EscapeString(ev.Data)
		case chapter.EventComplete:
			data = StreamFinishedData
		case chapter.EventError:
			data = StreamErrorData
		}
		c.Render(-1, sse.Event{Id: chapterID, Event: string(ev.Type), Data: data})
		c.Writer.Flush()
		return c.Request.Context().Err()
	}

	err = h.chapters.StreamPart(c.Request.Context(), c.Param("book_id"), chapterID, part, q.UserDirectives, emit)
	if err == nil {
		return
	}
	if started {
		logger.Warn(c.Request.Context(), "chapter stream ended with error", "chapter_id", chapterID, "error", err.Error())
		return
	}
	renderError(c, h.view, err)
}
