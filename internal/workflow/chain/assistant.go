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

// AssistantChain 向导里的短文本：点评与字段建议
type AssistantChain struct {
	factory  workflowport.ChatModelFactory
	registry *workflowprompt.Registry
}

func NewAssistantChain(factory workflowport.ChatModelFactory, registry *workflowprompt.Registry) *AssistantChain {
	return &AssistantChain{factory: factory, registry: registry}
}

func (c *AssistantChain) Comment(ctx context.Context, in *wfmodel.CommentInput) (string, error) {
	if in == nil || strings.TrimSpace(in.UserInput) == "" {
		return "", fmt.Errorf("user input is required")
	}
	msgs, err := c.registry.Format(ctx, workflowprompt.PromptWizardCommentV1, map[string]any{
		"step":       wfnode.OrNone(in.Step),
		"user_input": strings.TrimSpace(in.UserInput),
	})
	if err != nil {
		return "", err
	}
	return c.generate(ctx, llmctx.WorkflowWizardComment, in.LLMOptions, msgs)
}

func (c *AssistantChain) Suggest(ctx context.Context, in *wfmodel.SuggestionInput) (string, error) {
	if in == nil || strings.TrimSpace(in.FieldName) == "" {
		return "", fmt.Errorf("field name is required")
	}
	msgs, err := c.registry.Format(ctx, workflowprompt.PromptFieldSuggestionV1, map[string]any{
		"field_name": strings.TrimSpace(in.FieldName),
		"context":    wfnode.OrNone(in.Context),
	})
	if err != nil {
		return "", err
	}
	return c.generate(ctx, llmctx.WorkflowSuggestion, in.LLMOptions, msgs)
}

func (c *AssistantChain) generate(ctx context.Context, workflow string, o wfmodel.LLMOptions, msgs []*schema.Message) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	provider := c.factory.ProviderName(strings.TrimSpace(o.Provider))
	ctx = llmctx.WithWorkflowProvider(ctx, workflow, provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return "", err
	}
	outMsg, err := chatModel.Generate(ctx, msgs, buildModelOptions(o)...)
	if err != nil {
		return "", err
	}
	if outMsg == nil {
		return "", fmt.Errorf("empty llm response")
	}
	return strings.TrimSpace(outMsg.Content), nil
}
