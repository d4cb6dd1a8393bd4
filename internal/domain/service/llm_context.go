// Package service 放置跨层共享的领域上下文约定
package service

import (
	"context"
	"strings"
)

// 工作流名称，用作 LLM 指标与追踪的标签
const (
	WorkflowCharacterSheet = "character_sheet"
	WorkflowBookConcept    = "book_concept"
	WorkflowChapterPart    = "chapter_part"
	WorkflowWizardComment  = "wizard_comment"
	WorkflowSuggestion     = "field_suggestion"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

const unknown = "unknown"

// WithWorkflow 标记当前 LLM 调用所属的工作流
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withValue(ctx, llmCtxKeyWorkflow, workflow)
}

// WithProvider 标记当前 LLM 调用使用的 provider
func WithProvider(ctx context.Context, provider string) context.Context {
	return withValue(ctx, llmCtxKeyProvider, provider)
}

func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

func WorkflowFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyWorkflow)
}

func ProviderFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyProvider)
}

func withValue(ctx context.Context, key llmCtxKey, v string) context.Context {
	v = strings.TrimSpace(v)
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOr(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return unknown
	}
	return s
}
