// Package chapter 负责章节分段写作：拼装提示词、流式生成与落库
package chapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"book-factory/internal/application/retrieval"
	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	wfchain "book-factory/internal/workflow/chain"
	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	"book-factory/pkg/logger"
)

// Delimiter 章节末尾摘要前的分隔行
const Delimiter = "---"

const defaultTailChars = 1500

// PreviousEnding 取上一章最后一个分隔行之后的文本；没有分隔行时取末尾 tailChars 个字符
func PreviousEnding(content string, tailChars int) string {
	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == Delimiter {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	if tailChars <= 0 {
		tailChars = defaultTailChars
	}
	return strings.TrimSpace(wfnode.TailByRunes(content, tailChars))
}

// FormatEvents 大纲事件每条一行
func FormatEvents(events []entity.ChapterEvent) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		title := strings.TrimSpace(e.EventTitle)
		desc := strings.TrimSpace(e.EventDescription)
		switch {
		case title != "" && desc != "":
			lines = append(lines, fmt.Sprintf("- %s: %s", title, desc))
		case title != "":
			lines = append(lines, "- "+title)
		case desc != "":
			lines = append(lines, "- "+desc)
		}
	}
	return strings.Join(lines, "\n")
}

// Prompt 渲染好的章节提示词
type Prompt struct {
	Input    *wfmodel.ChapterPartInput
	Messages []*schema.Message
}

// Text 全部消息拼成的文本，用于日志与 CLI 预览
func (p *Prompt) Text() string {
	parts := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// PromptBuilder 汇集书籍、章节、角色与上一章结尾，生成章节提示词
type PromptBuilder struct {
	chapters  repository.ChapterRepository
	retriever *retrieval.CharacterContext
	chain     *wfchain.ChapterChain
	tailChars int
}

// NewPromptBuilder 创建提示词构建器
func NewPromptBuilder(
	chapters repository.ChapterRepository,
	retriever *retrieval.CharacterContext,
	chain *wfchain.ChapterChain,
	tailChars int,
) *PromptBuilder {
	if tailChars <= 0 {
		tailChars = defaultTailChars
	}
	return &PromptBuilder{
		chapters:  chapters,
		retriever: retriever,
		chain:     chain,
		tailChars: tailChars,
	}
}

// Build 为章节的某一部分生成提示词。大纲损坏时记录日志并以空事件继续。
func (b *PromptBuilder) Build(
	ctx context.Context,
	book *entity.Book,
	chapter *entity.Chapter,
	part entity.ChapterPart,
	directives string,
) (*Prompt, error) {
	if !part.Valid() {
		return nil, fmt.Errorf("part must be 1 or 2, got %d", part)
	}

	characters, err := b.retriever.ForBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load characters: %w", err)
	}

	in := &wfmodel.ChapterPartInput{
		Part:             int(part),
		Title:            book.Title,
		WorldDescription: book.WorldDescription,
		Characters:       characters,
		ChapterNumber:    chapter.ChapterNumber,
		TotalChapters:    book.ChaptersCount,
		ChapterTitle:     chapter.Title,
		ChapterSynopsis:  chapter.Synopsis,
		UserDirectives:   strings.TrimSpace(directives),
	}

	concept, err := book.Concept()
	if err != nil {
		logger.Warn(ctx, "stored concept is malformed, continuing without events", "error", err.Error())
		concept = nil
	}
	if concept != nil {
		in.Premise = concept.Premise
		if in.Title == "" {
			in.Title = concept.Title
		}
		if cc, ok := concept.Chapter(chapter.ChapterNumber); ok {
			in.ChapterEvents = FormatEvents(cc.ChapterEvents)
			if in.ChapterSynopsis == "" {
				in.ChapterSynopsis = cc.ChapterSynopsis
			}
		}
	}
	if in.TotalChapters < chapter.ChapterNumber {
		in.TotalChapters = chapter.ChapterNumber
	}

	switch part {
	case entity.PartOne:
		if chapter.ChapterNumber > 1 {
			prev, err := b.chapters.GetByBookAndNumber(ctx, book.ID, chapter.ChapterNumber-1)
			if err != nil {
				return nil, err
			}
			if prev != nil && strings.TrimSpace(prev.Content) != "" {
				in.PreviousEnding = PreviousEnding(prev.Content, b.tailChars)
			}
		}
	case entity.PartTwo:
		in.Part1Content = chapter.Content
	}

	msgs, err := b.chain.Messages(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Prompt{Input: in, Messages: msgs}, nil
}
