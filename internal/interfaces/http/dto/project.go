package dto

// PreviewFileResponse 预览的单个文件
type PreviewFileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// PreviewResponse 项目预览响应
type PreviewResponse struct {
	ProjectName string                `json:"project_name"`
	Files       []PreviewFileResponse `json:"files"`
	TotalFiles  int                   `json:"total_files"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string            `json:"status"`
	Agents map[string]string `json:"agents"`
}

// ServiceInfoResponse 服务元信息响应
type ServiceInfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}
