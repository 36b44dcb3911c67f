package handler

import (
	"github.com/gin-gonic/gin"

	"webgen-ai-api/internal/infrastructure/storage"
	"webgen-ai-api/internal/interfaces/http/dto"
)

// previewFileLimit 预览接口最多返回的文件数
const previewFileLimit = 10

// ProjectReader 已生成项目的只读访问
type ProjectReader interface {
	ProjectExists(name string) bool
	PreviewFiles(name string, limit int) ([]storage.PreviewFile, int, error)
	ZipPath(name string) (string, bool)
}

// ProjectHandler 项目预览与下载处理器
type ProjectHandler struct {
	reader ProjectReader
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(reader ProjectReader) *ProjectHandler {
	return &ProjectHandler{reader: reader}
}

// Preview 预览已生成项目的源码文件
// @Summary 预览项目
// @Description 返回项目内最多 10 个前端源码文件
// @Tags Projects
// @Produce json
// @Param project_name path string true "项目名"
// @Success 200 {object} dto.Response[dto.PreviewResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /preview/{project_name} [get]
func (h *ProjectHandler) Preview(c *gin.Context) {
	name := c.Param("project_name")
	if !h.reader.ProjectExists(name) {
		dto.NotFound(c, "project not found")
		return
	}

	files, total, err := h.reader.PreviewFiles(name, previewFileLimit)
	if err != nil {
		respondAppError(c, err, "failed to preview project")
		return
	}

	resp := dto.PreviewResponse{
		ProjectName: name,
		Files:       make([]dto.PreviewFileResponse, 0, len(files)),
		TotalFiles:  total,
	}
	for _, f := range files {
		resp.Files = append(resp.Files, dto.PreviewFileResponse{
			Path:    f.Path,
			Content: f.Content,
			Type:    f.Type,
		})
	}
	dto.Success(c, resp)
}

// Download 下载项目压缩包
// @Summary 下载项目
// @Description 以附件形式返回项目的 zip 压缩包
// @Tags Projects
// @Produce application/zip
// @Param project_name path string true "项目名"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /download/{project_name} [get]
func (h *ProjectHandler) Download(c *gin.Context) {
	name := c.Param("project_name")
	zipPath, ok := h.reader.ZipPath(name)
	if !ok {
		dto.NotFound(c, "zip file not found")
		return
	}
	c.FileAttachment(zipPath, name+".zip")
}
