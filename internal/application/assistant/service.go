// Package assistant 向导中的 AI 点评与字段建议
package assistant

import (
	"context"
	"strings"

	wfchain "book-factory/internal/workflow/chain"
	wfmodel "book-factory/internal/workflow/model"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
)

// 向导步骤
const (
	StepIdea       = "story idea"
	StepTitle      = "title"
	StepWorld      = "world"
	StepCharacters = "characters"
)

// Cache 文本读穿缓存，Redis 关闭时为 nil
type Cache interface {
	Key(parts ...string) string
	GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (string, error)) (string, error)
}

// Service 向导助手
type Service struct {
	chain    *wfchain.AssistantChain
	comments Cache
	language string
}

// NewService comments 可以为 nil
func NewService(chain *wfchain.AssistantChain, comments Cache, language string) *Service {
	return &Service{chain: chain, comments: comments, language: language}
}

// Comment 对用户刚填写的内容给出一两句点评。
// 点评只是装饰：任何失败都只记录日志并返回空字符串。
func (s *Service) Comment(ctx context.Context, step, userInput string) string {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return ""
	}
	load := func(ctx context.Context) (string, error) {
		return s.chain.Comment(ctx, &wfmodel.CommentInput{Step: step, UserInput: userInput})
	}

	var (
		text string
		err  error
	)
	if s.comments != nil {
		text, err = s.comments.GetOrLoad(ctx, s.comments.Key(s.language, step, userInput), load)
	} else {
		text, err = load(ctx)
	}
	if err != nil {
		logger.Warn(ctx, "wizard comment failed", "step", step, "error", err.Error())
		return ""
	}
	return text
}

// Suggest 为表单字段给出建议值
func (s *Service) Suggest(ctx context.Context, fieldName, hint string) (string, error) {
	fieldName = strings.TrimSpace(fieldName)
	if fieldName == "" {
		return "", apperrors.ErrInvalidParam.WithDetail("field_name is required")
	}
	text, err := s.chain.Suggest(ctx, &wfmodel.SuggestionInput{FieldName: fieldName, Context: hint})
	if err != nil {
		return "", apperrors.ErrLLMCallFailed.WithDetail("suggestion failed").WithError(err)
	}
	return text, nil
}
