// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/wire"

	"book-factory/internal/application/assistant"
	"book-factory/internal/application/book"
	"book-factory/internal/application/chapter"
	"book-factory/internal/application/retrieval"
	"book-factory/internal/config"
	"book-factory/internal/domain/repository"
	infraembedding "book-factory/internal/infrastructure/embedding"
	"book-factory/internal/infrastructure/llm"
	"book-factory/internal/infrastructure/messaging"
	"book-factory/internal/infrastructure/persistence/milvus"
	"book-factory/internal/infrastructure/persistence/redis"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/interfaces/http/handler"
	"book-factory/internal/interfaces/http/middleware"
	"book-factory/internal/interfaces/http/router"
	"book-factory/internal/interfaces/http/view"
	wfchain "book-factory/internal/workflow/chain"
	workflowport "book-factory/internal/workflow/port"
	workflowprompt "book-factory/internal/workflow/prompt"
	"book-factory/pkg/i18n"
	"book-factory/pkg/logger"
)

// App HTTP 服务进程
type App struct {
	Router   *router.Router
	Chapters *chapter.Service
}

// Toolkit 离线命令行使用的服务集合
type Toolkit struct {
	Client       *sqlstore.Client
	Books        *book.Service
	Orchestrator *book.Orchestrator
	Chapters     *chapter.Service
}

// Worker 章节落库消费者进程
type Worker struct {
	Client   *sqlstore.Client
	Consumer *messaging.Consumer
}

// StoreSet 关系库与仓储
var StoreSet = wire.NewSet(
	ProvideSQLClient,
	sqlstore.NewTxManager,
	sqlstore.NewBookRepository,
	sqlstore.NewCharacterRepository,
	sqlstore.NewChapterRepository,
	wire.Bind(new(repository.Transactor), new(*sqlstore.TxManager)),
	wire.Bind(new(repository.BookRepository), new(*sqlstore.BookRepository)),
	wire.Bind(new(repository.CharacterRepository), new(*sqlstore.CharacterRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*sqlstore.ChapterRepository)),
)

// RedisSet 可选 Redis：点评缓存、限流与落库队列
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideCommentCache,
	ProvideRateLimiter,
	ProvideFinalizePublisher,
)

// VectorSet 可选 Milvus 与 Embedder
var VectorSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideVectorStore,
	ProvideEmbedderOptional,
	ProvideCharacterContext,
)

// WorkflowSet LLM 链
var WorkflowSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	ProvidePromptRegistry,
	wfchain.NewCharacterSheetChain,
	wfchain.NewConceptChain,
	wfchain.NewChapterChain,
	wfchain.NewAssistantChain,
)

// ServiceSet 应用服务
var ServiceSet = wire.NewSet(
	ProvideBookConfig,
	book.NewService,
	book.NewOrchestrator,
	chapter.NewFinalizer,
	ProvideDispatcher,
	ProvidePromptBuilder,
	chapter.NewStreamer,
	chapter.NewService,
	ProvideAssistant,
)

// HTTPSet 处理器与路由
var HTTPSet = wire.NewSet(
	ProvideTranslator,
	view.New,
	handler.NewBookHandler,
	handler.NewWizardHandler,
	handler.NewChapterHandler,
	handler.NewAIHandler,
	ProvideLanguageHandler,
	ProvideHealthHandler,
	ProvideRateLimitKey,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// ProvideSQLClient 打开数据库，按配置自动迁移
func ProvideSQLClient(ctx context.Context, cfg *config.Config) (*sqlstore.Client, func(), error) {
	client, err := sqlstore.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	if cfg.Database.AutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return client, cleanup, nil
}

// ProvideRedisClientOptional Redis 未启用或不可达时返回 nil，相关功能降级
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, cache and rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRedisClient 落库消费者必须连上 Redis
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideCommentCache 注意返回 nil 接口而不是带类型的 nil 指针
func ProvideCommentCache(cfg *config.Config, client *redis.Client) assistant.Cache {
	if client == nil {
		return nil
	}
	return redis.NewTextCache(client, "comment", cfg.Cache.Redis.CommentTTL)
}

// ProvideRateLimiter Redis 不可用时不限流
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideRateLimitKey 限流键
func ProvideRateLimitKey() middleware.KeyFunc {
	return redis.BuildRateLimitKey
}

// ProvideFinalizePublisher Redis 不可用时章节在进程内落库
func ProvideFinalizePublisher(cfg *config.Config, client *redis.Client) chapter.FinalizePublisher {
	if client == nil {
		return nil
	}
	return messaging.NewProducer(client.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideMilvusClientOptional Milvus 不可达时不阻塞启动
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if !cfg.Vector.Milvus.Enabled {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideVectorStore 角色向量存储
func ProvideVectorStore(cfg *config.Config, client *milvus.Client) retrieval.VectorStore {
	if client == nil {
		return nil
	}
	return milvus.NewRetrievalVectorStore(milvus.NewRepository(client, cfg.Embedding.Dimension))
}

// ProvideEmbedderOptional 只有启用 Milvus 时才需要 Embedder
func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	if !cfg.Vector.Milvus.Enabled {
		return nil
	}
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
		return nil
	}
	return embedder
}

// ProvideCharacterContext 角色上下文检索
func ProvideCharacterContext(cfg *config.Config, embedder einoembedding.Embedder, vector retrieval.VectorStore, characters repository.CharacterRepository) *retrieval.CharacterContext {
	return retrieval.NewCharacterContext(embedder, vector, characters, cfg.Vector.Milvus.TopK)
}

// ProvidePromptRegistry 提示词模板
func ProvidePromptRegistry(cfg *config.Config) *workflowprompt.Registry {
	return workflowprompt.NewRegistry(cfg.Book.Language)
}

// ProvideBookConfig 写书配置
func ProvideBookConfig(cfg *config.Config) config.BookConfig {
	return cfg.Book
}

// ProvideDispatcher 章节落库分发
func ProvideDispatcher(cfg config.BookConfig, finalizer *chapter.Finalizer, publisher chapter.FinalizePublisher) chapter.Dispatcher {
	return chapter.NewDispatcher(cfg, finalizer, publisher)
}

// ProvidePromptBuilder 章节提示词构建
func ProvidePromptBuilder(cfg config.BookConfig, chapters repository.ChapterRepository, retriever *retrieval.CharacterContext, chain *wfchain.ChapterChain) *chapter.PromptBuilder {
	return chapter.NewPromptBuilder(chapters, retriever, chain, cfg.PreviousTailChars)
}

// ProvideAssistant 向导助手
func ProvideAssistant(cfg config.BookConfig, chain *wfchain.AssistantChain, comments assistant.Cache) *assistant.Service {
	return assistant.NewService(chain, comments, cfg.Language)
}

// ProvideTranslator 界面翻译
func ProvideTranslator(cfg *config.Config) (*i18n.Translator, error) {
	return i18n.New(cfg.I18n.DefaultLanguage)
}

// ProvideLanguageHandler 语言切换
func ProvideLanguageHandler(tr *i18n.Translator) *handler.LanguageHandler {
	return handler.NewLanguageHandler(tr, middleware.LanguageCookie)
}

// ProvideHealthHandler 数据库必需，Redis 与 Milvus 只在启用时检查
func ProvideHealthHandler(cfg *config.Config, db *sqlstore.Client, rdb *redis.Client, mv *milvus.Client) *handler.HealthHandler {
	optional := map[string]handler.HealthChecker{}
	if cfg.Cache.Redis.Enabled {
		optional["redis"] = nil
		if rdb != nil {
			optional["redis"] = rdb
		}
	}
	if cfg.Vector.Milvus.Enabled {
		optional["milvus"] = nil
		if mv != nil {
			optional["milvus"] = mv
		}
	}
	return handler.NewHealthHandler(cfg.App.Version, db, optional)
}

// ProvideConsumer 落库消费者，注册章节落库处理函数
func ProvideConsumer(cfg *config.Config, client *redis.Client, finalizer *chapter.Finalizer) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(client.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamChapterFinalize,
		Group:         messaging.ConsumerGroupFinalizer.WithPrefix(rs.ConsumerGroupPrefix),
		ConsumerName:  consumerName(cfg.App.Name),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff:       messaging.BackoffFromConfig(rs.RetryBackoff),
	})
	consumer.RegisterHandler(messaging.TypeChapterFinalize, chapter.NewFinalizeHandler(finalizer))
	return consumer
}

// consumerName 每个副本独立的消费者名，宕机副本遗留的 pending 才能被识别并认领
func consumerName(app string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s-%d", app, host, os.Getpid())
}
