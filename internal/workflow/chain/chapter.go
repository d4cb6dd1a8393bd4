package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	llmctx "book-factory/internal/domain/service"
	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	workflowport "book-factory/internal/workflow/port"
	workflowprompt "book-factory/internal/workflow/prompt"
)

// ChapterChain 按部分流式生成章节正文
type ChapterChain struct {
	factory  workflowport.ChatModelFactory
	registry *workflowprompt.Registry
}

func NewChapterChain(factory workflowport.ChatModelFactory, registry *workflowprompt.Registry) *ChapterChain {
	return &ChapterChain{factory: factory, registry: registry}
}

// Messages 渲染章节提示词
func (c *ChapterChain) Messages(ctx context.Context, in *wfmodel.ChapterPartInput) ([]*schema.Message, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	vars := map[string]any{
		"title":             wfnode.OrNone(in.Title),
		"premise":           wfnode.OrNone(in.Premise),
		"world_description": wfnode.OrNone(in.WorldDescription),
		"characters":        wfnode.OrNone(in.Characters),
		"chapter_number":    in.ChapterNumber,
		"total_chapters":    in.TotalChapters,
		"chapter_title":     wfnode.OrNone(in.ChapterTitle),
		"chapter_synopsis":  wfnode.OrNone(in.ChapterSynopsis),
		"chapter_events":    wfnode.OrNone(in.ChapterEvents),
		"user_directives":   wfnode.OrNone(in.UserDirectives),
	}

	id := workflowprompt.PromptChapterPart1V1
	switch in.Part {
	case 1:
		vars["previous_chapter_ending"] = wfnode.OrNone(in.PreviousEnding)
	case 2:
		id = workflowprompt.PromptChapterPart2V1
		vars["part1_content"] = wfnode.OrNone(in.Part1Content)
	default:
		return nil, fmt.Errorf("part must be 1 or 2, got %d", in.Part)
	}
	return c.registry.Format(ctx, id, vars)
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
// 流可能在最后返回一个 Content 为空但包含 Usage 的消息，用于 Token 统计。
func (c *ChapterChain) Stream(ctx context.Context, in *wfmodel.ChapterPartInput) (*schema.StreamReader[*schema.Message], error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	msgs, err := c.Messages(ctx, in)
	if err != nil {
		return nil, err
	}
	return c.StreamMessages(ctx, in.LLMOptions, msgs)
}

// StreamMessages 直接流式发送已渲染好的消息
func (c *ChapterChain) StreamMessages(ctx context.Context, o wfmodel.LLMOptions, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	provider := c.factory.ProviderName(strings.TrimSpace(o.Provider))
	ctx = llmctx.WithWorkflowProvider(ctx, llmctx.WorkflowChapterPart, provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}
	return chatModel.Stream(ctx, msgs, buildModelOptions(o)...)
}
