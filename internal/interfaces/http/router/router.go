// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"book-factory/internal/application/assistant"
	"book-factory/internal/config"
	"book-factory/internal/interfaces/http/handler"
	"book-factory/internal/interfaces/http/middleware"
	"book-factory/pkg/i18n"
)

// RouterHandlers 路由依赖的处理器
type RouterHandlers struct {
	Book     *handler.BookHandler
	Wizard   *handler.WizardHandler
	Chapter  *handler.ChapterHandler
	AI       *handler.AIHandler
	Language *handler.LanguageHandler
	Health   *handler.HealthHandler
}

// Router HTTP 路由器
type Router struct {
	engine  *gin.Engine
	cfg     *config.Config
	tr      *i18n.Translator
	limiter middleware.RateLimiter
	keyFunc middleware.KeyFunc
}

// NewWithDeps 创建路由器。limiter 为 nil 时不限流
func NewWithDeps(cfg *config.Config, handlers *RouterHandlers, tr *i18n.Translator, limiter middleware.RateLimiter, keyFunc middleware.KeyFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:  gin.New(),
		cfg:     cfg,
		tr:      tr,
		limiter: limiter,
		keyFunc: keyFunc,
	}
	r.setupMiddleware()
	r.setupRoutes(handlers)
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.RouteContext())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.cfg.Observability.Metrics.Path, "/health", "/ready", "/live"))
	}
	r.engine.Use(middleware.Language(r.tr))
}

func (r *Router) setupRoutes(h *RouterHandlers) {
	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 会调用 LLM 的路由单独限流
	llmLimit := middleware.RateLimit(r.cfg.Security.RateLimit, r.limiter, r.keyFunc)

	r.engine.GET("/", h.Book.List)
	r.engine.POST("/language", h.Language.Set)

	// 建书向导
	r.engine.GET("/book/new", h.Wizard.New)
	r.engine.GET("/book/new/:book_id", h.Wizard.New)
	r.engine.POST("/book", h.Wizard.SubmitIdea)

	book := r.engine.Group("/book/:book_id")
	{
		book.GET("", h.Book.Dashboard)
		book.DELETE("", h.Book.Delete)
		book.PUT("", h.Wizard.Update)

		book.GET("/title", h.Wizard.Step(assistant.StepTitle))
		book.GET("/world", h.Wizard.Step(assistant.StepWorld))
		book.GET("/characters", h.Wizard.Step(assistant.StepCharacters))
		book.GET("/characters/add", h.Wizard.AddCharacter)
		book.PUT("/characters", h.Wizard.SaveCharacters)
		book.PUT("/chapters", h.Wizard.SetChapters)
		book.POST("/generate", llmLimit, h.Wizard.Generate)

		chapter := book.Group("/chapter/:chapter_id")
		{
			chapter.GET("", h.Chapter.View)
			chapter.GET("/write", h.Chapter.Write)
			chapter.POST("/generate", h.Chapter.Generate)
			chapter.GET("/generate-stream", llmLimit, h.Chapter.Stream)
		}
	}

	ai := r.engine.Group("/ai", llmLimit)
	{
		ai.POST("/suggest", h.AI.Suggest)
		ai.POST("/comment", h.AI.Comment)
	}
}
