package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	wfmodel "webgen-ai-api/internal/workflow/model"
	wfnode "webgen-ai-api/internal/workflow/node"
	"webgen-ai-api/pkg/errors"
	"webgen-ai-api/pkg/logger"
)

// defaultProjectName 增强结果缺失项目名时的兜底值
const defaultProjectName = "generated-project"

// Enhancer 将用户的原始需求扩写为结构化的应用描述
type Enhancer struct {
	chain    StageChain
	provider string
	model    string
}

// NewEnhancer 创建提示词增强器
func NewEnhancer(chain StageChain, provider, model string) *Enhancer {
	return &Enhancer{
		chain:    chain,
		provider: provider,
		model:    model,
	}
}

// Enhance 执行增强调用并严格解析产出。
// 模型输出无法解析为合法结构时返回 Prompt enhancement failed 错误。
func (e *Enhancer) Enhance(ctx context.Context, prompt string) (*EnhanceOutput, error) {
	msg, err := e.chain.Invoke(ctx, &wfmodel.StageInput{
		Provider: e.provider,
		Model:    e.model,
		Vars: map[string]any{
			"prompt":     prompt,
			"shape_json": enhancementShapeJSON,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEnhancementFailed, "Prompt enhancement failed").
			WithDetail(err.Error())
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New(errors.CodeEnhancementFailed, "Prompt enhancement failed").
			WithDetail("empty model response")
	}

	payload := wfnode.ExtractJSONBlock(msg.Content)

	var spec wfmodel.EnhancementSpec
	if err := json.Unmarshal([]byte(payload), &spec); err != nil {
		logger.Warn(ctx, "enhancement output is not valid json",
			"provider", e.provider,
			"model", e.model,
			"error", err.Error(),
		)
		return nil, errors.Wrap(err, errors.CodeEnhancementFailed, "Prompt enhancement failed").
			WithDetail(fmt.Sprintf("invalid enhancement payload: %v", err))
	}
	if strings.TrimSpace(spec.EnhancedPrompt) == "" {
		return nil, errors.New(errors.CodeEnhancementFailed, "Prompt enhancement failed").
			WithDetail("enhancement payload missing enhanced_prompt")
	}
	if strings.TrimSpace(spec.ProjectName) == "" {
		spec.ProjectName = defaultProjectName
	}

	return &EnhanceOutput{Spec: &spec, Model: e.model}, nil
}
