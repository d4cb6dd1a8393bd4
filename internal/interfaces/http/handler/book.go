package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"book-factory/internal/application/book"
	"book-factory/internal/domain/entity"
	"book-factory/internal/interfaces/http/view"
)

// BookHandler 书籍列表、总览与删除
type BookHandler struct {
	books *book.Service
	view  *view.Renderer
}

// NewBookHandler 创建书籍处理器
func NewBookHandler(books *book.Service, v *view.Renderer) *BookHandler {
	return &BookHandler{books: books, view: v}
}

// List 书籍列表，?status= 过滤
func (h *BookHandler) List(c *gin.Context) {
	var statuses []entity.BookStatus
	if s := c.Query("status"); s != "" {
		statuses = append(statuses, entity.BookStatus(s))
	}
	books, err := h.books.List(c.Request.Context(), statuses...)
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "index", gin.H{"Books": books, "Status": c.Query("status")})
}

// Dashboard 书籍总览
func (h *BookHandler) Dashboard(c *gin.Context) {
	d, err := h.books.Dashboard(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "dashboard", gin.H{
		"Book":        d.Book,
		"Concept":     d.Concept,
		"NextChapter": d.NextChapter,
	})
}

// Delete 级联删除书籍
func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.books.Delete(c.Request.Context(), c.Param("book_id")); err != nil {
		renderError(c, h.view, err)
		return
	}
	redirect(c, "/")
}
