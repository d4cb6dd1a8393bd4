package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "book-factory/internal/domain/service"
	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	workflowport "book-factory/internal/workflow/port"
	workflowprompt "book-factory/internal/workflow/prompt"
)

// CharacterSheetChain 为单个角色生成角色卡
type CharacterSheetChain struct {
	factory  workflowport.ChatModelFactory
	registry *workflowprompt.Registry

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.CharacterSheetInput, *wfmodel.CharacterSheet]
	chainErr  error
}

func NewCharacterSheetChain(factory workflowport.ChatModelFactory, registry *workflowprompt.Registry) *CharacterSheetChain {
	return &CharacterSheetChain{factory: factory, registry: registry}
}

func (c *CharacterSheetChain) Invoke(ctx context.Context, in *wfmodel.CharacterSheetInput) (*wfmodel.CharacterSheet, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type characterSheetState struct {
	In       *wfmodel.CharacterSheetInput
	Messages []*schema.Message
	Raw      string
}

func (c *CharacterSheetChain) getChain() (compose.Runnable[*wfmodel.CharacterSheetInput, *wfmodel.CharacterSheet], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *CharacterSheetChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.CharacterSheetInput, *wfmodel.CharacterSheet], error) {
	chain := compose.NewChain[*wfmodel.CharacterSheetInput, *wfmodel.CharacterSheet]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.CharacterSheetInput) (*characterSheetState, error) {
			if strings.TrimSpace(in.Character.Name) == "" {
				return nil, fmt.Errorf("character name is required")
			}
			msgs, err := c.registry.Format(ctx, workflowprompt.PromptCharacterSheetV1, map[string]any{
				"user_prompt":       wfnode.OrNone(in.UserPrompt),
				"title":             wfnode.OrNone(in.Title),
				"world_description": wfnode.OrNone(in.WorldDescription),
				"other_characters":  wfnode.BuildCharactersBlock(in.Others),
				"name":              strings.TrimSpace(in.Character.Name),
				"role":              in.Character.Role,
				"description":       wfnode.OrNone(in.Character.Description),
			})
			if err != nil {
				return nil, err
			}
			return &characterSheetState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName("character_sheet.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *characterSheetState) (*characterSheetState, error) {
			provider := c.factory.ProviderName(strings.TrimSpace(st.In.Provider))
			ctx = llmctx.WithWorkflowProvider(ctx, llmctx.WorkflowCharacterSheet, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}
			raw, err := generateStructured(ctx, chatModel, st.Messages, st.In.LLMOptions, "character_sheet", characterSheetJSONSchema())
			if err != nil {
				return nil, err
			}
			st.Raw = raw
			return st, nil
		}),
		compose.WithNodeName("character_sheet.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *characterSheetState) (*wfmodel.CharacterSheet, error) {
			var sheet wfmodel.CharacterSheet
			if err := json.Unmarshal([]byte(st.Raw), &sheet); err != nil {
				return nil, fmt.Errorf("failed to parse character sheet for %s: %w", st.In.Character.Name, err)
			}
			return &sheet, nil
		}),
		compose.WithNodeName("character_sheet.parse"),
	)

	return chain.Compile(ctx)
}

func characterSheetJSONSchema() map[string]any {
	return stringProps("summary", "profile", "dialogue_voice", "relationships", "role_potential", "story_arc")
}
