// Package chain 编排提示词渲染与模型调用
package chain

import (
	"context"
	"fmt"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	"book-factory/pkg/logger"
)

func buildModelOptions(o wfmodel.LLMOptions) []model.Option {
	opts := make([]model.Option, 0, 4)
	if o.Temperature != nil {
		opts = append(opts, model.WithTemperature(*o.Temperature))
	}
	if o.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*o.MaxTokens))
	}
	if m := strings.TrimSpace(o.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	return opts
}

func withJSONSchema(opts []model.Option, name string, jsonSchema map[string]any) []model.Option {
	out := make([]model.Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, openaiopts.WithExtraFields(map[string]any{
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"strict": false,
				"schema": jsonSchema,
			},
		},
	}))
}

// generateStructured 先带 json_schema 调用，provider 不支持时退回纯提示词，
// 返回从回答中截取的 JSON 文本。
func generateStructured(
	ctx context.Context,
	chatModel model.BaseChatModel,
	msgs []*schema.Message,
	o wfmodel.LLMOptions,
	schemaName string,
	jsonSchema map[string]any,
) (string, error) {
	base := buildModelOptions(o)
	outMsg, err := chatModel.Generate(ctx, msgs, withJSONSchema(base, schemaName, jsonSchema)...)
	if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
			"schema", schemaName,
			"model", strings.TrimSpace(o.Model),
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, base...)
	}
	if err != nil {
		return "", err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", fmt.Errorf("empty llm response")
	}
	return wfnode.ExtractJSONObject(outMsg.Content), nil
}

func stringProps(names ...string) map[string]any {
	props := make(map[string]any, len(names))
	required := make([]any, 0, len(names))
	for _, n := range names {
		props[n] = map[string]any{"type": "string"}
		required = append(required, n)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           props,
	}
}
