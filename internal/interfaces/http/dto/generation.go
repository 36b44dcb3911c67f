package dto

// GenerateRequest 生成请求
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// AgentsUsedResponse 各阶段使用的模型
type AgentsUsedResponse struct {
	PromptEnhancer    string `json:"prompt_enhancer"`
	FrontendGenerator string `json:"frontend_generator"`
	BackendGenerator  string `json:"backend_generator"`
}

// GenerationResponse 生成成功响应
type GenerationResponse struct {
	ProjectName    string             `json:"project_name"`
	EnhancedPrompt string             `json:"enhanced_prompt"`
	FilesPath      string             `json:"files_path"`
	ZipPath        string             `json:"zip_path"`
	AgentsUsed     AgentsUsedResponse `json:"agents_used"`
}
