// Package storage 提供生成项目的落盘与归档能力
package storage

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"webgen-ai-api/pkg/errors"
	"webgen-ai-api/pkg/logger"
	"webgen-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("storage")

// previewExtensions 预览接口允许返回的文件扩展名
var previewExtensions = map[string]struct{}{
	".tsx": {},
	".ts":  {},
	".jsx": {},
	".js":  {},
	".css": {},
}

// PreviewFile 预览接口返回的单个文件
type PreviewFile struct {
	Path    string
	Content string
	Type    string
}

// Workspace 管理生成项目的根目录。
// 同一项目的写入与归档通过项目级互斥锁串行化，不同项目互不阻塞。
type Workspace struct {
	root string

	mu    sync.Mutex
	locks map[string]*projectLock
}

// projectLock 项目级互斥锁，带引用计数以便无持有者时回收
type projectLock struct {
	mu   sync.Mutex
	refs int
}

// NewWorkspace 创建工作区，根目录不存在时自动创建
func NewWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		root = "generated"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}
	return &Workspace{
		root:  root,
		locks: make(map[string]*projectLock),
	}, nil
}

// Root 返回工作区根目录
func (w *Workspace) Root() string {
	return w.root
}

// lockProject 锁定项目
func (w *Workspace) lockProject(name string) *projectLock {
	w.mu.Lock()
	l, ok := w.locks[name]
	if !ok {
		l = &projectLock{}
		w.locks[name] = l
	}
	l.refs++
	w.mu.Unlock()

	l.mu.Lock()
	return l
}

// unlockProject 解锁项目，最后一个持有者负责移除锁记录
func (w *Workspace) unlockProject(name string, l *projectLock) {
	l.mu.Unlock()

	w.mu.Lock()
	l.refs--
	if l.refs <= 0 {
		delete(w.locks, name)
	}
	w.mu.Unlock()
}

// frontendPayload 前端生成阶段的产物结构
type frontendPayload struct {
	ProjectName string            `json:"project_name"`
	Frontend    map[string]string `json:"frontend"`
}

// backendPayload 后端生成阶段的产物结构
type backendPayload struct {
	Backend map[string]string `json:"backend"`
}

// WriteProject 解析前后端产物并写入 <root>/<name>/ 目录，返回项目目录路径。
// 同名目录已存在时整体覆盖。解析或写入失败返回 File writing failed 错误。
func (w *Workspace) WriteProject(ctx context.Context, name, frontendRaw, backendRaw string) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.WriteProject")
	span.SetAttributes(attribute.String("project.name", name))
	defer span.End()

	if err := validateProjectName(name); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(err.Error())
	}

	var front frontendPayload
	if err := json.Unmarshal([]byte(frontendRaw), &front); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(fmt.Sprintf("invalid frontend payload: %v", err))
	}
	var back backendPayload
	if err := json.Unmarshal([]byte(backendRaw), &back); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(fmt.Sprintf("invalid backend payload: %v", err))
	}

	lock := w.lockProject(name)
	defer w.unlockProject(name, lock)

	projectDir := filepath.Join(w.root, name)

	// 覆盖写：先清掉旧目录
	if err := os.RemoveAll(projectDir); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(fmt.Sprintf("failed to clean project dir: %v", err))
	}
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(fmt.Sprintf("failed to create project dir: %v", err))
	}

	frontendCount, err := w.writeTree(projectDir, "frontend", front.Frontend)
	if err != nil {
		return "", err
	}
	backendCount, err := w.writeTree(projectDir, "backend", back.Backend)
	if err != nil {
		return "", err
	}

	metrics.ProjectFilesWritten.WithLabelValues("frontend").Observe(float64(frontendCount))
	metrics.ProjectFilesWritten.WithLabelValues("backend").Observe(float64(backendCount))
	span.SetAttributes(
		attribute.Int("storage.frontend_files", frontendCount),
		attribute.Int("storage.backend_files", backendCount),
	)
	logger.Info(ctx, "project files written",
		"project_name", name,
		"frontend_files", frontendCount,
		"backend_files", backendCount,
		"files_path", projectDir,
	)

	return projectDir, nil
}

// writeTree 写入一棵文件树。
// 前后端各落在项目下的同名子目录，两侧的 package.json 互不冲突。
func (w *Workspace) writeTree(projectDir, tree string, files map[string]string) (int, error) {
	treeDir := filepath.Join(projectDir, tree)
	if err := os.MkdirAll(treeDir, 0o755); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "File writing failed").
			WithDetail(fmt.Sprintf("failed to create %s dir: %v", tree, err))
	}

	count := 0
	for relPath, content := range files {
		cleaned, err := sanitizeRelPath(relPath)
		if err != nil {
			return count, errors.Wrap(err, errors.CodeStorageError, "File writing failed").
				WithDetail(fmt.Sprintf("invalid %s file path %q: %v", tree, relPath, err))
		}
		target := filepath.Join(treeDir, cleaned)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return count, errors.Wrap(err, errors.CodeStorageError, "File writing failed").
				WithDetail(fmt.Sprintf("failed to create dir for %s: %v", cleaned, err))
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return count, errors.Wrap(err, errors.CodeStorageError, "File writing failed").
				WithDetail(fmt.Sprintf("failed to write %s: %v", cleaned, err))
		}
		count++
	}
	return count, nil
}

// CreateArchive 将项目目录打包为 <root>/<name>.zip，返回压缩包路径。
// 已存在的压缩包被覆盖。
func (w *Workspace) CreateArchive(ctx context.Context, name string) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.CreateArchive")
	span.SetAttributes(attribute.String("project.name", name))
	defer span.End()

	if err := validateProjectName(name); err != nil {
		return "", errors.Wrap(err, errors.CodeArchiveError, "File writing failed").
			WithDetail(err.Error())
	}

	lock := w.lockProject(name)
	defer w.unlockProject(name, lock)

	projectDir := filepath.Join(w.root, name)
	if _, err := os.Stat(projectDir); err != nil {
		return "", errors.Wrap(err, errors.CodeArchiveError, "File writing failed").
			WithDetail(fmt.Sprintf("project dir not found: %v", err))
	}

	zipPath := filepath.Join(w.root, name+".zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeArchiveError, "File writing failed").
			WithDetail(fmt.Sprintf("failed to create archive: %v", err))
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(projectDir, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(filepath.Join(name, rel)))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	if walkErr == nil {
		walkErr = zw.Close()
	} else {
		zw.Close()
	}
	if walkErr != nil {
		os.Remove(zipPath)
		return "", errors.Wrap(walkErr, errors.CodeArchiveError, "File writing failed").
			WithDetail(fmt.Sprintf("failed to build archive: %v", walkErr))
	}

	if info, err := os.Stat(zipPath); err == nil {
		metrics.ArchiveBytes.Observe(float64(info.Size()))
		span.SetAttributes(attribute.Int64("archive.bytes", info.Size()))
	}
	logger.Info(ctx, "project archive created", "project_name", name, "zip_path", zipPath)

	return zipPath, nil
}

// ProjectExists 检查项目目录是否存在
func (w *Workspace) ProjectExists(name string) bool {
	if validateProjectName(name) != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(w.root, name))
	return err == nil && info.IsDir()
}

// ZipPath 返回项目压缩包路径，不存在时返回 false
func (w *Workspace) ZipPath(name string) (string, bool) {
	if validateProjectName(name) != nil {
		return "", false
	}
	path := filepath.Join(w.root, name+".zip")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// PreviewFiles 读取项目 frontend 子树内可预览的源码文件，最多返回 limit 个。
// 只返回前端源码类扩展名，路径相对 frontend 子树，第二个返回值为命中的文件总数。
func (w *Workspace) PreviewFiles(name string, limit int) ([]PreviewFile, int, error) {
	if validateProjectName(name) != nil || !w.ProjectExists(name) {
		return nil, 0, errors.New(errors.CodeProjectNotFound, "project not found")
	}

	frontendDir := filepath.Join(w.root, name, "frontend")
	if _, err := os.Stat(frontendDir); err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, errors.Wrap(err, errors.CodeStorageError, "failed to read project files")
	}

	var matched []string
	err := filepath.WalkDir(frontendDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := previewExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			matched = append(matched, path)
		}
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeStorageError, "failed to read project files")
	}

	// 遍历顺序和文件系统实现相关，排序保证响应稳定
	sort.Strings(matched)

	total := len(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	files := make([]PreviewFile, 0, len(matched))
	for _, path := range matched {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.CodeStorageError, "failed to read project files").
				WithDetail(fmt.Sprintf("failed to read %s: %v", path, err))
		}
		rel, err := filepath.Rel(frontendDir, path)
		if err != nil {
			rel = path
		}
		files = append(files, PreviewFile{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
			Type:    strings.TrimPrefix(filepath.Ext(path), "."),
		})
	}
	return files, total, nil
}

// validateProjectName 拒绝可能逃逸工作区的项目名
func validateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("project name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("project name %q contains path separators", name)
	}
	return nil
}

// sanitizeRelPath 规范化产物中的相对路径并拒绝目录逃逸
func sanitizeRelPath(relPath string) (string, error) {
	p := strings.TrimSpace(relPath)
	if p == "" {
		return "", fmt.Errorf("empty file path")
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute path not allowed")
	}
	cleaned := filepath.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project dir")
	}
	return cleaned, nil
}
