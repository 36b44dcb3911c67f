// Package generation 实现提示词增强到代码落盘的生成流水线
package generation

import (
	"context"

	"github.com/cloudwego/eino/schema"

	wfmodel "webgen-ai-api/internal/workflow/model"
)

// StageChain 单个生成阶段的 LLM 调用链
type StageChain interface {
	Invoke(ctx context.Context, in *wfmodel.StageInput) (*schema.Message, error)
}

// PromptEnhancer 提示词增强阶段
type PromptEnhancer interface {
	Enhance(ctx context.Context, prompt string) (*EnhanceOutput, error)
}

// CodeGenerator 代码生成阶段（前端或后端）
type CodeGenerator interface {
	Generate(ctx context.Context, spec *wfmodel.EnhancementSpec) (*CodeOutput, error)
}

// ProjectStore 项目落盘与归档
type ProjectStore interface {
	WriteProject(ctx context.Context, name, frontendRaw, backendRaw string) (string, error)
	CreateArchive(ctx context.Context, name string) (string, error)
}

// EnhanceOutput 增强阶段产物
type EnhanceOutput struct {
	Spec *wfmodel.EnhancementSpec

	// Model 本次调用实际使用的模型名
	Model string
}

// CodeOutput 代码生成阶段产物。
// Payload 是提取出的 JSON 文本，结构校验推迟到落盘阶段。
type CodeOutput struct {
	Payload string
	Model   string
}
