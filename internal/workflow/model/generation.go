// Package model 定义工作流层的数据模型
package model

import (
	"encoding/json"
	"time"
)

// EnhancementSpec 提示词增强阶段产出的结构化应用描述。
// 一次生成请求只产出一次，随后被前后端生成阶段消费，不再修改。
type EnhancementSpec struct {
	ProjectName    string    `json:"project_name"`
	EnhancedPrompt string    `json:"enhanced_prompt"`
	Features       []string  `json:"features"`
	TechStack      TechStack `json:"tech_stack"`
	Pages          []string  `json:"pages"`
	Components     []string  `json:"components"`
}

// TechStack 目标应用的技术栈描述
type TechStack struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Database string   `json:"database"`
}

// FeaturesJSON 将特性列表编码为 JSON 数组文本，用于嵌入提示词
func (s *EnhancementSpec) FeaturesJSON() string {
	if s == nil || len(s.Features) == 0 {
		return "[]"
	}
	b, err := json.Marshal(s.Features)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// StageInput 单次 LLM 生成调用的输入
type StageInput struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	// Vars 提示词模板变量
	Vars map[string]any
}

// LLMUsageMeta 单次 LLM 调用的用量元信息
type LLMUsageMeta struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
}
