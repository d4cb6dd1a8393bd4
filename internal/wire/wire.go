//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"book-factory/internal/application/chapter"
	"book-factory/internal/config"
)

// InitializeApp 初始化 HTTP 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StoreSet,
		RedisSet,
		VectorSet,
		WorkflowSet,
		ServiceSet,
		HTTPSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeToolkit 初始化离线命令行，不需要 HTTP 层
func InitializeToolkit(ctx context.Context, cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		StoreSet,
		RedisSet,
		VectorSet,
		WorkflowSet,
		ServiceSet,
		wire.Struct(new(Toolkit), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化落库消费者
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		StoreSet,
		ProvideRedisClient,
		chapter.NewFinalizer,
		ProvideConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}
