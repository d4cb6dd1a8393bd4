package chain

import (
	"context"
	"fmt"
	"strings"

	llmctx "book-factory/internal/domain/service"
	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	workflowport "book-factory/internal/workflow/port"
	workflowprompt "book-factory/internal/workflow/prompt"
)

// ConceptChain 生成整书概念（标题、前提、逐章大纲与事件）
type ConceptChain struct {
	factory  workflowport.ChatModelFactory
	registry *workflowprompt.Registry
}

func NewConceptChain(factory workflowport.ChatModelFactory, registry *workflowprompt.Registry) *ConceptChain {
	return &ConceptChain{factory: factory, registry: registry}
}

// Invoke 返回模型给出的概念 JSON，解析与校验由调用方负责
func (c *ConceptChain) Invoke(ctx context.Context, in *wfmodel.ConceptInput) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return "", fmt.Errorf("input is nil")
	}
	if in.ChaptersCount <= 0 {
		return "", fmt.Errorf("chapters_count must be positive")
	}

	msgs, err := c.registry.Format(ctx, workflowprompt.PromptBookConceptV1, map[string]any{
		"user_prompt":       wfnode.OrNone(in.UserPrompt),
		"title":             wfnode.OrNone(in.Title),
		"world_description": wfnode.OrNone(in.WorldDescription),
		"characters":        wfnode.OrNone(in.Characters),
		"chapters_count":    in.ChaptersCount,
	})
	if err != nil {
		return "", err
	}

	provider := c.factory.ProviderName(strings.TrimSpace(in.Provider))
	ctx = llmctx.WithWorkflowProvider(ctx, llmctx.WorkflowBookConcept, provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return "", err
	}
	return generateStructured(ctx, chatModel, msgs, in.LLMOptions, "book_concept", conceptJSONSchema(in.ChaptersCount))
}

func conceptJSONSchema(chapters int) map[string]any {
	event := stringProps("event_title", "event_description")
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "premise", "chapters"},
		"properties": map[string]any{
			"title":   map[string]any{"type": "string"},
			"premise": map[string]any{"type": "string"},
			"chapters": map[string]any{
				"type":     "array",
				"minItems": chapters,
				"maxItems": chapters,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"chapter_number", "chapter_title", "chapter_synopsis", "chapter_events"},
					"properties": map[string]any{
						"chapter_number":   map[string]any{"type": "integer"},
						"chapter_title":    map[string]any{"type": "string"},
						"chapter_synopsis": map[string]any{"type": "string"},
						"chapter_events":   map[string]any{"type": "array", "items": event},
					},
				},
			},
		},
	}
}
