// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"webgen-ai-api/internal/application/generation"
	"webgen-ai-api/internal/interfaces/http/dto"
	"webgen-ai-api/pkg/errors"
	"webgen-ai-api/pkg/logger"
)

// minPromptRunes 提示词最小长度（按字符计）
const minPromptRunes = 10

// GenerationRunner 生成流水线入口
type GenerationRunner interface {
	Run(ctx context.Context, prompt string) (*generation.Outcome, error)
}

// GenerationHandler 生成处理器
type GenerationHandler struct {
	runner GenerationRunner
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(runner GenerationRunner) *GenerationHandler {
	return &GenerationHandler{runner: runner}
}

// Generate 执行完整生成流水线
// @Summary 生成全栈应用
// @Description 将用户需求依次经过提示词增强、前端生成、后端生成并落盘打包
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.GenerationResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if utf8.RuneCountInString(prompt) < minPromptRunes {
		dto.BadRequest(c, "prompt must be at least 10 characters long")
		return
	}

	outcome, err := h.runner.Run(ctx, prompt)
	if err != nil {
		respondAppError(c, err, "generation failed")
		return
	}

	dto.Success(c, dto.GenerationResponse{
		ProjectName:    outcome.ProjectName,
		EnhancedPrompt: outcome.EnhancedPrompt,
		FilesPath:      outcome.FilesPath,
		ZipPath:        outcome.ZipPath,
		AgentsUsed: dto.AgentsUsedResponse{
			PromptEnhancer:    outcome.AgentsUsed.PromptEnhancer,
			FrontendGenerator: outcome.AgentsUsed.FrontendGenerator,
			BackendGenerator:  outcome.AgentsUsed.BackendGenerator,
		},
	})
}

// respondAppError 将应用错误映射为统一错误响应
func respondAppError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		})
		return
	}

	logger.Error(ctx, fallback, err)
	dto.InternalError(c, fallback)
}
