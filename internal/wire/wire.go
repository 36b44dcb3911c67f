// Package wire 提供依赖装配
package wire

import (
	"context"

	"github.com/gin-gonic/gin"

	"webgen-ai-api/internal/application/generation"
	"webgen-ai-api/internal/config"
	"webgen-ai-api/internal/infrastructure/llm"
	redisinfra "webgen-ai-api/internal/infrastructure/persistence/redis"
	"webgen-ai-api/internal/infrastructure/storage"
	"webgen-ai-api/internal/interfaces/http/handler"
	"webgen-ai-api/internal/interfaces/http/middleware"
	"webgen-ai-api/internal/interfaces/http/router"
	"webgen-ai-api/internal/workflow/chain"
	workflowprompt "webgen-ai-api/internal/workflow/prompt"
	"webgen-ai-api/pkg/logger"
)

// 各生成阶段的工作流名，贯穿链路节点命名与 LLM 指标标签
const (
	workflowPromptEnhance = "prompt_enhance"
	workflowFrontendGen   = "frontend_gen"
	workflowBackendGen    = "backend_gen"
)

// App 装配完成的应用
type App struct {
	router *router.Router
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// InitializeApp 装配整个应用，返回应用实例与资源清理函数
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	factory := llm.NewEinoFactory(cfg)

	roles := cfg.Generation.Roles
	enhanceProvider, enhanceModel := cfg.RoleProviderModel(roles.PromptEnhancer)
	frontendProvider, frontendModel := cfg.RoleProviderModel(roles.FrontendGenerator)
	backendProvider, backendModel := cfg.RoleProviderModel(roles.BackendGenerator)

	enhanceChain := chain.NewGenerationChain(factory, workflowPromptEnhance,
		workflowprompt.PromptEnhanceV1, generation.EnhancementOutputSchema())
	frontendChain := chain.NewGenerationChain(factory, workflowFrontendGen,
		workflowprompt.PromptFrontendGenV1, nil)
	backendChain := chain.NewGenerationChain(factory, workflowBackendGen,
		workflowprompt.PromptBackendGenV1, nil)

	enhancer := generation.NewEnhancer(enhanceChain, enhanceProvider, enhanceModel)
	frontend := generation.NewFrontendGenerator(frontendChain, frontendProvider, frontendModel)
	backend := generation.NewBackendGenerator(backendChain, backendProvider, backendModel)

	workspace, err := storage.NewWorkspace(cfg.Generation.Workspace)
	if err != nil {
		return nil, nil, err
	}

	orchestrator := generation.NewOrchestrator(enhancer, frontend, backend, workspace)

	// Redis 仅在启用限流时接入，连接失败降级为不限流
	var limiter middleware.RateLimiter
	var redisClient *redisinfra.Client
	if cfg.Security.RateLimit.Enabled {
		redisClient, err = redisinfra.NewClient(&cfg.Cache.Redis)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, rate limiting disabled", "error", err.Error())
			redisClient = nil
		} else {
			limiter = redisinfra.NewRateLimiter(redisClient)
		}
	}

	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(cfg),
		Generation: handler.NewGenerationHandler(orchestrator),
		Project:    handler.NewProjectHandler(workspace),
	}

	r := router.New(cfg, handlers, limiter)

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn(ctx, "failed to close redis client", "error", err.Error())
			}
		}
	}

	return &App{router: r}, cleanup, nil
}
