// Package port 定义工作流层对外部组件的依赖
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
	// ProviderName 解析 provider 名称，空值返回默认 provider
	ProviderName(name string) string
}
