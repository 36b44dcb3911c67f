package generation

import (
	"context"
	"strings"

	wfmodel "webgen-ai-api/internal/workflow/model"
	wfnode "webgen-ai-api/internal/workflow/node"
	"webgen-ai-api/pkg/errors"
)

// LLMCodeGenerator 基于 LLM 的单侧代码生成器。
// 前后端两个阶段共用此实现，仅提示词与失败语义不同。
// 产出只做 JSON 提取，不做结构解码，结构问题留给落盘阶段统一报出。
type LLMCodeGenerator struct {
	chain    StageChain
	provider string
	model    string

	// shape 产出结构示例，前端示例里要嵌入实际项目名
	shape    func(spec *wfmodel.EnhancementSpec) string
	failCode errors.ErrorCode
	failMsg  string
}

// NewFrontendGenerator 创建前端代码生成器
func NewFrontendGenerator(chain StageChain, provider, model string) *LLMCodeGenerator {
	return &LLMCodeGenerator{
		chain:    chain,
		provider: provider,
		model:    model,
		shape: func(spec *wfmodel.EnhancementSpec) string {
			return shapeWithProject(frontendShapeJSON, spec.ProjectName)
		},
		failCode: errors.CodeFrontendGenFailed,
		failMsg:  "Frontend generation failed",
	}
}

// NewBackendGenerator 创建后端代码生成器
func NewBackendGenerator(chain StageChain, provider, model string) *LLMCodeGenerator {
	return &LLMCodeGenerator{
		chain:    chain,
		provider: provider,
		model:    model,
		shape: func(spec *wfmodel.EnhancementSpec) string {
			return shapeWithProject(backendShapeJSON, spec.ProjectName)
		},
		failCode: errors.CodeBackendGenFailed,
		failMsg:  "Backend generation failed",
	}
}

// Generate 基于增强后的应用描述生成一侧的代码文件
func (g *LLMCodeGenerator) Generate(ctx context.Context, spec *wfmodel.EnhancementSpec) (*CodeOutput, error) {
	if spec == nil {
		return nil, errors.New(g.failCode, g.failMsg).WithDetail("enhancement spec is nil")
	}

	msg, err := g.chain.Invoke(ctx, &wfmodel.StageInput{
		Provider: g.provider,
		Model:    g.model,
		Vars: map[string]any{
			"description": spec.EnhancedPrompt,
			"features":    spec.FeaturesJSON(),
			"shape_json":  g.shape(spec),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, g.failCode, g.failMsg).WithDetail(err.Error())
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New(g.failCode, g.failMsg).WithDetail("empty model response")
	}

	return &CodeOutput{
		Payload: wfnode.ExtractJSONBlock(msg.Content),
		Model:   g.model,
	}, nil
}
