package generation

import (
	"strconv"
	"strings"
)

// 各阶段提示词中嵌入的输出结构示例，
// 以模板变量传入，避免在模板文件里转义花括号。
const (
	enhancementShapeJSON = `{
  "project_name": "short-kebab-case-name",
  "enhanced_prompt": "detailed description of the web application to build",
  "features": ["feature 1", "feature 2", "feature 3"],
  "tech_stack": {
    "frontend": ["React", "TypeScript", "Tailwind CSS"],
    "backend": ["Node.js", "Express"],
    "database": "SQLite"
  },
  "pages": ["Home", "Detail"],
  "components": ["Header", "Footer"]
}`

	frontendShapeJSON = `{
  "project_name": "project-name",
  "frontend": {
    "app/page.tsx": "// complete file content",
    "app/layout.tsx": "// complete file content",
    "app/globals.css": "/* complete file content */",
    "package.json": "// complete file content"
  }
}`

	backendShapeJSON = `{
  "project_name": "project-name",
  "backend": {
    "server.js": "// complete file content",
    "package.json": "// complete file content"
  }
}`
)

// shapeWithProject 把实际项目名嵌入输出结构示例
func shapeWithProject(base, projectName string) string {
	if strings.TrimSpace(projectName) == "" {
		return base
	}
	return strings.Replace(base, `"project-name"`, strconv.Quote(projectName), 1)
}

// EnhancementOutputSchema 增强阶段的 JSON Schema，
// 用于支持 response_format json_schema 的 Provider。
func EnhancementOutputSchema() map[string]any {
	stringArray := func() map[string]any {
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_name":    map[string]any{"type": "string"},
			"enhanced_prompt": map[string]any{"type": "string"},
			"features":        stringArray(),
			"tech_stack": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"frontend": stringArray(),
					"backend":  stringArray(),
					"database": map[string]any{"type": "string"},
				},
				"required": []string{"frontend", "backend", "database"},
			},
			"pages":      stringArray(),
			"components": stringArray(),
		},
		"required": []string{"project_name", "enhanced_prompt", "features", "tech_stack", "pages", "components"},
	}
}
