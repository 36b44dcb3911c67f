package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "webgen-ai-api/internal/workflow/model"
	"webgen-ai-api/pkg/errors"
)

type stubEnhancer struct {
	out   *EnhanceOutput
	err   error
	calls int
}

func (s *stubEnhancer) Enhance(_ context.Context, _ string) (*EnhanceOutput, error) {
	s.calls++
	return s.out, s.err
}

type stubGenerator struct {
	out   *CodeOutput
	err   error
	calls int
	order *[]string
	name  string
}

func (s *stubGenerator) Generate(_ context.Context, _ *wfmodel.EnhancementSpec) (*CodeOutput, error) {
	s.calls++
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return s.out, s.err
}

type stubStore struct {
	filesPath  string
	zipPath    string
	writeErr   error
	zipErr     error
	writeCalls int
	zipCalls   int

	gotName     string
	gotFrontend string
	gotBackend  string
}

func (s *stubStore) WriteProject(_ context.Context, name, frontendRaw, backendRaw string) (string, error) {
	s.writeCalls++
	s.gotName = name
	s.gotFrontend = frontendRaw
	s.gotBackend = backendRaw
	return s.filesPath, s.writeErr
}

func (s *stubStore) CreateArchive(_ context.Context, name string) (string, error) {
	s.zipCalls++
	return s.zipPath, s.zipErr
}

func testSpec() *wfmodel.EnhancementSpec {
	return &wfmodel.EnhancementSpec{
		ProjectName:    "todo-app",
		EnhancedPrompt: "Build a todo list application.",
		Features:       []string{"add tasks"},
	}
}

func TestOrchestratorRunSuccess(t *testing.T) {
	var order []string
	enhancer := &stubEnhancer{out: &EnhanceOutput{Spec: testSpec(), Model: "gemini-2.5-flash"}}
	frontend := &stubGenerator{out: &CodeOutput{Payload: `{"frontend":{}}`, Model: "gemini-2.5-flash"}, order: &order, name: "frontend"}
	backend := &stubGenerator{out: &CodeOutput{Payload: `{"backend":{}}`, Model: "gemini-2.5-flash"}, order: &order, name: "backend"}
	store := &stubStore{filesPath: "generated/todo-app", zipPath: "generated/todo-app.zip"}

	o := NewOrchestrator(enhancer, frontend, backend, store)
	outcome, err := o.Run(context.Background(), "make me a todo app")
	require.NoError(t, err)

	assert.Equal(t, "todo-app", outcome.ProjectName)
	assert.Equal(t, "Build a todo list application.", outcome.EnhancedPrompt)
	assert.Equal(t, "generated/todo-app", outcome.FilesPath)
	assert.Equal(t, "generated/todo-app.zip", outcome.ZipPath)
	assert.Equal(t, AgentsUsed{
		PromptEnhancer:    "gemini-2.5-flash",
		FrontendGenerator: "gemini-2.5-flash",
		BackendGenerator:  "gemini-2.5-flash",
	}, outcome.AgentsUsed)

	// 前端先于后端，顺序执行
	assert.Equal(t, []string{"frontend", "backend"}, order)
	assert.Equal(t, 1, enhancer.calls)
	assert.Equal(t, 1, store.writeCalls)
	assert.Equal(t, 1, store.zipCalls)
	assert.Equal(t, "todo-app", store.gotName)
	assert.Equal(t, `{"frontend":{}}`, store.gotFrontend)
	assert.Equal(t, `{"backend":{}}`, store.gotBackend)
}

func TestOrchestratorStopsOnEnhanceFailure(t *testing.T) {
	enhanceErr := errors.New(errors.CodeEnhancementFailed, "Prompt enhancement failed")
	enhancer := &stubEnhancer{err: enhanceErr}
	frontend := &stubGenerator{}
	backend := &stubGenerator{}
	store := &stubStore{}

	o := NewOrchestrator(enhancer, frontend, backend, store)
	_, err := o.Run(context.Background(), "make me a todo app")
	require.Error(t, err)

	// 错误原样传递，后续阶段不执行
	assert.Same(t, enhanceErr, err)
	assert.Equal(t, 0, frontend.calls)
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, 0, store.writeCalls)
}

func TestOrchestratorStopsOnFrontendFailure(t *testing.T) {
	genErr := errors.New(errors.CodeFrontendGenFailed, "Frontend generation failed")
	enhancer := &stubEnhancer{out: &EnhanceOutput{Spec: testSpec(), Model: "m"}}
	frontend := &stubGenerator{err: genErr}
	backend := &stubGenerator{}
	store := &stubStore{}

	o := NewOrchestrator(enhancer, frontend, backend, store)
	_, err := o.Run(context.Background(), "make me a todo app")
	require.Error(t, err)

	assert.Same(t, genErr, err)
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, 0, store.writeCalls)
}

func TestOrchestratorStopsOnWriteFailure(t *testing.T) {
	writeErr := errors.New(errors.CodeStorageError, "File writing failed")
	enhancer := &stubEnhancer{out: &EnhanceOutput{Spec: testSpec(), Model: "m"}}
	frontend := &stubGenerator{out: &CodeOutput{Payload: `{"frontend":{}}`, Model: "m"}}
	backend := &stubGenerator{out: &CodeOutput{Payload: `{"backend":{}}`, Model: "m"}}
	store := &stubStore{writeErr: writeErr}

	o := NewOrchestrator(enhancer, frontend, backend, store)
	_, err := o.Run(context.Background(), "make me a todo app")
	require.Error(t, err)

	assert.Same(t, writeErr, err)
	assert.Equal(t, 1, store.writeCalls)
	assert.Equal(t, 0, store.zipCalls)
}
