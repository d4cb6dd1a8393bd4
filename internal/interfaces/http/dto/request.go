package dto

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// IdeaForm 向导第一步
type IdeaForm struct {
	BookID     string `form:"book_id"`
	UserPrompt string `form:"user_prompt"`
}

// ChaptersForm 章节数
type ChaptersForm struct {
	ChaptersCount int `form:"chapters_count" binding:"required"`
}

// ChapterGenerateForm 写作表单，同时用于流式接口的查询参数
type ChapterGenerateForm struct {
	Part           string `form:"part"`
	UserDirectives string `form:"user_directives"`
}

// SuggestRequest /ai/suggest 请求体
type SuggestRequest struct {
	Context   string `json:"context"`
	FieldName string `json:"field_name" binding:"required"`
}

// CommentRequest /ai/comment 请求体；step 缺省为故事想法
type CommentRequest struct {
	UserInput string `json:"user_input" binding:"required"`
	Step      string `json:"step"`
}

// CharacterRow 角色表单中的一行
type CharacterRow struct {
	Index         int
	Name          string
	Description   string
	IsProtagonist bool
}

// ParseCharacterRows 解析 name_i / description_i / is_protagonist=i，按 i 升序返回
func ParseCharacterRows(form url.Values) []CharacterRow {
	protagonist := strings.TrimSpace(form.Get("is_protagonist"))

	var rows []CharacterRow
	for key := range form {
		suffix, ok := strings.CutPrefix(key, "name_")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(suffix)
		if err != nil || i < 0 {
			continue
		}
		rows = append(rows, CharacterRow{
			Index:         i,
			Name:          form.Get(key),
			Description:   form.Get("description_" + suffix),
			IsProtagonist: protagonist == suffix,
		})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Index < rows[b].Index })
	return rows
}
