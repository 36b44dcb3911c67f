package generation

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "webgen-ai-api/internal/workflow/model"
	"webgen-ai-api/pkg/errors"
)

// stageChainFunc 测试用的阶段链桩
type stageChainFunc func(ctx context.Context, in *wfmodel.StageInput) (*schema.Message, error)

func (f stageChainFunc) Invoke(ctx context.Context, in *wfmodel.StageInput) (*schema.Message, error) {
	return f(ctx, in)
}

func assistantReply(content string) stageChainFunc {
	return func(_ context.Context, _ *wfmodel.StageInput) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

func TestEnhancerParsesFencedOutput(t *testing.T) {
	reply := "```json\n" + `{
  "project_name": "todo-app",
  "enhanced_prompt": "Build a todo list application with categories.",
  "features": ["add tasks", "mark complete"],
  "tech_stack": {"frontend": ["React"], "backend": ["Express"], "database": "SQLite"},
  "pages": ["Home"],
  "components": ["TaskList"]
}` + "\n```"

	e := NewEnhancer(assistantReply(reply), "gemini", "gemini-2.5-flash")
	out, err := e.Enhance(context.Background(), "make me a todo app")
	require.NoError(t, err)

	assert.Equal(t, "todo-app", out.Spec.ProjectName)
	assert.Equal(t, "Build a todo list application with categories.", out.Spec.EnhancedPrompt)
	assert.Equal(t, []string{"add tasks", "mark complete"}, out.Spec.Features)
	assert.Equal(t, "SQLite", out.Spec.TechStack.Database)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
}

func TestEnhancerDefaultsProjectName(t *testing.T) {
	reply := `{"enhanced_prompt": "Build something.", "features": [], "tech_stack": {"frontend": [], "backend": [], "database": ""}, "pages": [], "components": []}`

	e := NewEnhancer(assistantReply(reply), "gemini", "gemini-2.5-flash")
	out, err := e.Enhance(context.Background(), "make me an app please")
	require.NoError(t, err)
	assert.Equal(t, "generated-project", out.Spec.ProjectName)
}

func TestEnhancerRejectsInvalidJSON(t *testing.T) {
	e := NewEnhancer(assistantReply("I cannot produce JSON today, sorry."), "gemini", "gemini-2.5-flash")

	_, err := e.Enhance(context.Background(), "make me a todo app")
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeEnhancementFailed, appErr.Code)
	assert.Equal(t, "Prompt enhancement failed", appErr.Message)
}

func TestEnhancerRejectsMissingEnhancedPrompt(t *testing.T) {
	e := NewEnhancer(assistantReply(`{"project_name": "x"}`), "gemini", "gemini-2.5-flash")

	_, err := e.Enhance(context.Background(), "make me a todo app")
	require.Error(t, err)
	assert.Equal(t, errors.CodeEnhancementFailed, errors.AsAppError(err).Code)
}

func TestEnhancerWrapsChainError(t *testing.T) {
	chain := stageChainFunc(func(_ context.Context, _ *wfmodel.StageInput) (*schema.Message, error) {
		return nil, fmt.Errorf("connection refused")
	})

	e := NewEnhancer(chain, "gemini", "gemini-2.5-flash")
	_, err := e.Enhance(context.Background(), "make me a todo app")
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeEnhancementFailed, appErr.Code)
	assert.Contains(t, appErr.Detail, "connection refused")
}

func TestEnhancerPassesPromptVars(t *testing.T) {
	var gotVars map[string]any
	chain := stageChainFunc(func(_ context.Context, in *wfmodel.StageInput) (*schema.Message, error) {
		gotVars = in.Vars
		return schema.AssistantMessage(`{"project_name": "p", "enhanced_prompt": "e"}`, nil), nil
	})

	e := NewEnhancer(chain, "gemini", "gemini-2.5-flash")
	_, err := e.Enhance(context.Background(), "make me a todo app")
	require.NoError(t, err)

	assert.Equal(t, "make me a todo app", gotVars["prompt"])
	assert.NotEmpty(t, gotVars["shape_json"])
}
