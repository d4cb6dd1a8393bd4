package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"book-factory/internal/application/assistant"
	"book-factory/internal/application/book"
	"book-factory/internal/domain/entity"
	"book-factory/internal/interfaces/http/dto"
	"book-factory/internal/interfaces/http/view"
	apperrors "book-factory/pkg/errors"
)

// 新书向导默认展示的空白角色行数
const initialCharacterRows = 2

// WizardHandler 建书向导的各个步骤
type WizardHandler struct {
	books        *book.Service
	orchestrator *book.Orchestrator
	assistant    *assistant.Service
	view         *view.Renderer
}

// NewWizardHandler 创建向导处理器
func NewWizardHandler(books *book.Service, orchestrator *book.Orchestrator, assistant *assistant.Service, v *view.Renderer) *WizardHandler {
	return &WizardHandler{books: books, orchestrator: orchestrator, assistant: assistant, view: v}
}

// New 向导页面；未知 id 视为新向导
func (h *WizardHandler) New(c *gin.Context) {
	data := gin.H{}
	if id := c.Param("book_id"); id != "" {
		b, err := h.books.Get(c.Request.Context(), id)
		switch {
		case err == nil:
			data["Book"] = b
		case !errors.Is(err, apperrors.ErrBookNotFound):
			renderError(c, h.view, err)
			return
		}
	}
	h.view.HTML(c, http.StatusOK, "wizard", data)
}

// SubmitIdea 保存故事想法，进入标题步骤
func (h *WizardHandler) SubmitIdea(c *gin.Context) {
	var form dto.IdeaForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	b, err := h.books.SubmitIdea(c.Request.Context(), form.BookID, form.UserPrompt)
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.renderTitle(c, b)
}

// Step 重新打开某个步骤
func (h *WizardHandler) Step(step string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("book_id")
		switch step {
		case assistant.StepTitle:
			b, err := h.books.Get(ctx, id)
			if err != nil {
				renderError(c, h.view, err)
				return
			}
			h.renderTitle(c, b)
		case assistant.StepWorld:
			b, err := h.books.Get(ctx, id)
			if err != nil {
				renderError(c, h.view, err)
				return
			}
			h.renderWorld(c, b)
		default:
			b, err := h.books.GetWithRelations(ctx, id)
			if err != nil {
				renderError(c, h.view, err)
				return
			}
			h.renderCharacters(c, http.StatusOK, b, rowsFor(b.Characters), "")
		}
	}
}

// Update 保存标题或世界观，两者都缺时返回 400
func (h *WizardHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("book_id")

	if title, ok := c.GetPostForm("title"); ok {
		b, err := h.books.UpdateTitle(ctx, id, title)
		if err != nil {
			renderError(c, h.view, err)
			return
		}
		h.renderWorld(c, b)
		return
	}
	if world, ok := c.GetPostForm("world_description"); ok {
		b, err := h.books.UpdateWorld(ctx, id, world)
		if err != nil {
			renderError(c, h.view, err)
			return
		}
		full, err := h.books.GetWithRelations(ctx, b.ID)
		if err != nil {
			renderError(c, h.view, err)
			return
		}
		h.renderCharacters(c, http.StatusOK, full, rowsFor(full.Characters), "")
		return
	}
	renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail("title or world_description is required"))
}

// AddCharacter 一行空白角色表单，并带上下一个序号的按钮
func (h *WizardHandler) AddCharacter(c *gin.Context) {
	var q struct {
		Index int `form:"character_index"`
	}
	if err := c.ShouldBindQuery(&q); err != nil || q.Index < 0 {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail("character_index must be a non-negative integer"))
		return
	}
	h.view.HTML(c, http.StatusOK, "character_added", gin.H{
		"Row":       dto.CharacterRow{Index: q.Index},
		"BookID":    c.Param("book_id"),
		"NextIndex": q.Index + 1,
		"OOB":       true,
	})
}

// SaveCharacters 校验并保存角色，失败时带着用户输入返回 422
func (h *WizardHandler) SaveCharacters(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	rows := dto.ParseCharacterRows(c.Request.PostForm)
	inputs := make([]book.CharacterInput, 0, len(rows))
	for _, r := range rows {
		inputs = append(inputs, book.CharacterInput{
			Name:          r.Name,
			Description:   r.Description,
			IsProtagonist: r.IsProtagonist,
		})
	}

	ctx := c.Request.Context()
	id := c.Param("book_id")
	b, err := h.books.SaveCharacters(ctx, id, inputs)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			renderError(c, h.view, err)
			return
		}
		current, getErr := h.books.Get(ctx, id)
		if getErr != nil {
			renderError(c, h.view, getErr)
			return
		}
		_, msg := errorStatus(err)
		h.renderCharacters(c, http.StatusUnprocessableEntity, current, rows, msg)
		return
	}

	h.view.HTML(c, http.StatusOK, "step_chapters", gin.H{
		"Book":        b,
		"MaxChapters": h.books.MaxChapters(),
		"Comment":     h.comment(ctx, assistant.StepCharacters, describeCast(b.Characters)),
	})
}

// SetChapters 保存章节数，进入生成步骤
func (h *WizardHandler) SetChapters(c *gin.Context) {
	var form dto.ChaptersForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, h.view, apperrors.ErrInvalidParam.WithDetail("chapters_count must be a number"))
		return
	}
	b, err := h.books.SetChaptersCount(c.Request.Context(), c.Param("book_id"), form.ChaptersCount)
	if err != nil {
		renderError(c, h.view, err)
		return
	}
	h.view.HTML(c, http.StatusOK, "step_generate", gin.H{"Book": b})
}

// Generate 同步运行整书生成，成功后跳转到总览页
func (h *WizardHandler) Generate(c *gin.Context) {
	b, err := h.orchestrator.Generate(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		status, msg := errorStatus(err)
		// 上游失败统一按 500 展示，书籍已被标记为 failed
		if status >= http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		renderErrorStatus(c, h.view, status, msg, err)
		return
	}
	redirect(c, "/book/"+b.ID)
}

func (h *WizardHandler) renderTitle(c *gin.Context, b *entity.Book) {
	h.renderStep(c, "step_title", b, assistant.StepIdea, b.UserPrompt)
}

func (h *WizardHandler) renderWorld(c *gin.Context, b *entity.Book) {
	h.renderStep(c, "step_world", b, assistant.StepTitle, b.Title)
}

func (h *WizardHandler) renderStep(c *gin.Context, name string, b *entity.Book, step, input string) {
	h.view.HTML(c, http.StatusOK, name, gin.H{
		"Book":    b,
		"Comment": h.comment(c.Request.Context(), step, input),
	})
}

func (h *WizardHandler) renderCharacters(c *gin.Context, status int, b *entity.Book, rows []dto.CharacterRow, errMsg string) {
	data := gin.H{
		"Book":      b,
		"BookID":    b.ID,
		"Rows":      rows,
		"NextIndex": nextIndex(rows),
		"Error":     errMsg,
	}
	if errMsg == "" {
		data["Comment"] = h.comment(c.Request.Context(), assistant.StepWorld, b.WorldDescription)
	}
	h.view.HTML(c, status, "step_characters", data)
}

func (h *WizardHandler) comment(ctx context.Context, step, input string) string {
	if h.assistant == nil {
		return ""
	}
	return h.assistant.Comment(ctx, step, input)
}

// rowsFor 已保存的角色转成表单行，没有角色时给出空白行
func rowsFor(chars []*entity.Character) []dto.CharacterRow {
	if len(chars) == 0 {
		rows := make([]dto.CharacterRow, initialCharacterRows)
		for i := range rows {
			rows[i].Index = i
		}
		return rows
	}
	rows := make([]dto.CharacterRow, 0, len(chars))
	for i, ch := range chars {
		rows = append(rows, dto.CharacterRow{
			Index:         i,
			Name:          ch.Name,
			Description:   ch.Description,
			IsProtagonist: ch.IsProtagonist,
		})
	}
	return rows
}

func nextIndex(rows []dto.CharacterRow) int {
	next := 0
	for _, r := range rows {
		if r.Index >= next {
			next = r.Index + 1
		}
	}
	return next
}

func describeCast(chars []*entity.Character) string {
	parts := make([]string, 0, len(chars))
	for _, ch := range chars {
		role := entity.RoleSupporting
		if ch.IsProtagonist {
			role = entity.RoleProtagonist
		}
		parts = append(parts, ch.Name+" ("+role+"): "+ch.Description)
	}
	return strings.Join(parts, "\n")
}
