package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webgen-ai-api/internal/config"
	"webgen-ai-api/internal/interfaces/http/dto"
)

// HealthHandler 健康检查与服务元信息处理器
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 返回服务状态与各生成角色使用的模型
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	agents := map[string]string{}
	if h.cfg != nil {
		roles := h.cfg.Generation.Roles
		_, enhancerModel := h.cfg.RoleProviderModel(roles.PromptEnhancer)
		_, frontendModel := h.cfg.RoleProviderModel(roles.FrontendGenerator)
		_, backendModel := h.cfg.RoleProviderModel(roles.BackendGenerator)
		agents["prompt_enhancer"] = enhancerModel
		agents["frontend_generator"] = frontendModel
		agents["backend_generator"] = backendModel
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "healthy",
		Agents: agents,
	})
}

// Info 服务元信息接口
// @Summary 服务信息
// @Description 返回服务名、版本与可用端点
// @Tags System
// @Produce json
// @Success 200 {object} dto.ServiceInfoResponse
// @Router / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	name := "webgen-ai-api"
	version := ""
	if h.cfg != nil {
		if h.cfg.App.Name != "" {
			name = h.cfg.App.Name
		}
		version = h.cfg.App.Version
	}

	c.JSON(http.StatusOK, dto.ServiceInfoResponse{
		Service: name,
		Version: version,
		Status:  "running",
		Endpoints: map[string]string{
			"generate": "POST /generate",
			"preview":  "GET /preview/{project_name}",
			"download": "GET /download/{project_name}",
			"health":   "GET /health",
		},
	})
}
