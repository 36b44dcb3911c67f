package storage

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webgen-ai-api/pkg/errors"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return w
}

func TestWriteProject(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	frontend := `{"project_name":"todo-app","frontend":{"app/page.tsx":"export default function Page() {}","app/globals.css":"body {}"}}`
	backend := `{"backend":{"server.js":"const express = require('express')"}}`

	filesPath, err := w.WriteProject(ctx, "todo-app", frontend, backend)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Root(), "todo-app"), filesPath)

	content, err := os.ReadFile(filepath.Join(filesPath, "frontend", "app", "page.tsx"))
	require.NoError(t, err)
	assert.Equal(t, "export default function Page() {}", string(content))

	content, err = os.ReadFile(filepath.Join(filesPath, "backend", "server.js"))
	require.NoError(t, err)
	assert.Equal(t, "const express = require('express')", string(content))
}

func TestWriteProjectSeparatesTrees(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	// 前后端都带 package.json，必须互不覆盖
	filesPath, err := w.WriteProject(ctx, "shop",
		`{"frontend":{"package.json":"frontend-pkg","app/page.tsx":"page"}}`,
		`{"backend":{"package.json":"backend-pkg","server.js":"srv"}}`)
	require.NoError(t, err)

	frontendPkg, err := os.ReadFile(filepath.Join(filesPath, "frontend", "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "frontend-pkg", string(frontendPkg))

	backendPkg, err := os.ReadFile(filepath.Join(filesPath, "backend", "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "backend-pkg", string(backendPkg))

	// 项目根目录下只有两棵子树，没有散落的文件
	entries, err := os.ReadDir(filesPath)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"frontend", "backend"}, names)
}

func TestWriteProjectOverwritesExisting(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.WriteProject(ctx, "app",
		`{"frontend":{"old.ts":"old"}}`,
		`{"backend":{}}`)
	require.NoError(t, err)

	filesPath, err := w.WriteProject(ctx, "app",
		`{"frontend":{"new.ts":"new"}}`,
		`{"backend":{}}`)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(filesPath, "frontend", "old.ts"))
	assert.True(t, os.IsNotExist(err), "stale files should be removed on overwrite")
	_, err = os.Stat(filepath.Join(filesPath, "frontend", "new.ts"))
	assert.NoError(t, err)
}

func TestWriteProjectInvalidPayload(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.WriteProject(context.Background(), "app", "not json at all", `{"backend":{}}`)
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeStorageError, appErr.Code)
	assert.Equal(t, "File writing failed", appErr.Message)
}

func TestWriteProjectRejectsEscapingPaths(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.WriteProject(context.Background(), "app",
		`{"frontend":{"../outside.ts":"nope"}}`,
		`{"backend":{}}`)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStorageError, errors.AsAppError(err).Code)
}

func TestCreateArchive(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.WriteProject(ctx, "blog",
		`{"frontend":{"app/page.tsx":"page"}}`,
		`{"backend":{"server.js":"srv"}}`)
	require.NoError(t, err)

	zipPath, err := w.CreateArchive(ctx, "blog")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Root(), "blog.zip"), zipPath)

	reader, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer reader.Close()

	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	assert.True(t, names["blog/frontend/app/page.tsx"])
	assert.True(t, names["blog/backend/server.js"])

	got, ok := w.ZipPath("blog")
	assert.True(t, ok)
	assert.Equal(t, zipPath, got)
}

func TestCreateArchiveMissingProject(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.CreateArchive(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeArchiveError, errors.AsAppError(err).Code)
}

func TestPreviewFiles(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.WriteProject(ctx, "shop",
		`{"frontend":{"app/page.tsx":"page","app/globals.css":"css","README.md":"doc"}}`,
		`{"backend":{"server.js":"srv","package.json":"{}"}}`)
	require.NoError(t, err)

	files, total, err := w.PreviewFiles("shop", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, files, 2)

	byPath := make(map[string]PreviewFile)
	for _, f := range files {
		byPath[f.Path] = f
	}
	assert.Contains(t, byPath, "app/page.tsx")
	assert.Contains(t, byPath, "app/globals.css")
	assert.NotContains(t, byPath, "README.md", "markdown is not previewable")
	assert.Equal(t, "tsx", byPath["app/page.tsx"].Type)
	assert.Equal(t, "page", byPath["app/page.tsx"].Content)
}

func TestPreviewFilesSkipBackendTree(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	// 后端的 .js 不属于预览范围
	_, err := w.WriteProject(ctx, "shop",
		`{"frontend":{"app/page.tsx":"page"}}`,
		`{"backend":{"server.js":"srv","routes/api.js":"api"}}`)
	require.NoError(t, err)

	files, total, err := w.PreviewFiles("shop", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, files, 1)
	assert.Equal(t, "app/page.tsx", files[0].Path)
}

func TestPreviewFilesLimit(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	payload := `{"frontend":{` +
		`"a.ts":"1","b.ts":"2","c.ts":"3","d.ts":"4","e.ts":"5",` +
		`"f.ts":"6","g.ts":"7","h.ts":"8","i.ts":"9","j.ts":"10",` +
		`"k.ts":"11","l.ts":"12"}}`
	_, err := w.WriteProject(ctx, "big", payload, `{"backend":{}}`)
	require.NoError(t, err)

	files, total, err := w.PreviewFiles("big", 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, files, 10)
}

func TestPreviewFilesUnknownProject(t *testing.T) {
	w := newTestWorkspace(t)

	_, _, err := w.PreviewFiles("nope", 10)
	require.Error(t, err)
	assert.Equal(t, errors.CodeProjectNotFound, errors.AsAppError(err).Code)
}

func TestProjectLocksReleased(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.WriteProject(ctx, "app", `{"frontend":{"a.ts":"1"}}`, `{"backend":{}}`)
	require.NoError(t, err)
	_, err = w.CreateArchive(ctx, "app")
	require.NoError(t, err)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.locks, "released project locks should not accumulate")
}

func TestProjectNameValidation(t *testing.T) {
	w := newTestWorkspace(t)

	assert.False(t, w.ProjectExists("../etc"))
	_, ok := w.ZipPath("a/b")
	assert.False(t, ok)

	_, err := w.WriteProject(context.Background(), "..", `{"frontend":{}}`, `{"backend":{}}`)
	require.Error(t, err)
}
