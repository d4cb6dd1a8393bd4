// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptCharacterSheetV1  PromptID = "character_sheet_v1"
	PromptBookConceptV1     PromptID = "book_concept_v1"
	PromptChapterPart1V1    PromptID = "chapter_part1_v1"
	PromptChapterPart2V1    PromptID = "chapter_part2_v1"
	PromptWizardCommentV1   PromptID = "wizard_comment_v1"
	PromptFieldSuggestionV1 PromptID = "field_suggestion_v1"
)

const footerFile = "templates/language_footer.txt"

// VarLanguage 语言尾注使用的变量名
const VarLanguage = "language"

// Registry 缓存已解析的 ChatTemplate。每个用户消息末尾都会拼上语言尾注。
type Registry struct {
	language string

	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry language 为正文写作语言
func NewRegistry(language string) *Registry {
	language = strings.TrimSpace(language)
	if language == "" {
		language = "english"
	}
	return &Registry{
		language: language,
		cache:    make(map[PromptID]einoprompt.ChatTemplate),
	}
}

// Language 当前写作语言
func (r *Registry) Language() string {
	return r.language
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}
	footer, err := readEmbeddedText(footerFile)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user+"\n\n"+footer),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// Format 渲染模板，自动补上 language 变量
func (r *Registry) Format(ctx context.Context, id PromptID, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	if _, ok := merged[VarLanguage]; !ok {
		merged[VarLanguage] = r.language
	}
	return tpl.Format(ctx, merged)
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptCharacterSheetV1, PromptBookConceptV1, PromptChapterPart1V1, PromptChapterPart2V1,
		PromptWizardCommentV1, PromptFieldSuggestionV1:
		return "templates/" + string(id) + ".system.txt", "templates/" + string(id) + ".user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
