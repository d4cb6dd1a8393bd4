// Package model 定义工作流的输入输出
package model

// LLMOptions 单次调用可覆盖的模型参数，空值使用 provider 配置
type LLMOptions struct {
	Provider string

	Model       string
	Temperature *float32
	MaxTokens   *int
}
