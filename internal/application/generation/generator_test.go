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

func TestFrontendGeneratorExtractsPayload(t *testing.T) {
	reply := "Here is your app:\n```json\n{\"project_name\":\"todo-app\",\"frontend\":{\"src/App.tsx\":\"app\"}}\n```"
	g := NewFrontendGenerator(assistantReply(reply), "gemini", "gemini-2.5-flash")

	out, err := g.Generate(context.Background(), testSpec())
	require.NoError(t, err)
	assert.Equal(t, `{"project_name":"todo-app","frontend":{"src/App.tsx":"app"}}`, out.Payload)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
}

func TestGeneratorVarsComeFromSpec(t *testing.T) {
	var gotVars map[string]any
	chain := stageChainFunc(func(_ context.Context, in *wfmodel.StageInput) (*schema.Message, error) {
		gotVars = in.Vars
		return schema.AssistantMessage(`{"backend":{}}`, nil), nil
	})

	g := NewBackendGenerator(chain, "gemini", "gemini-2.5-flash")
	_, err := g.Generate(context.Background(), testSpec())
	require.NoError(t, err)

	assert.Equal(t, "Build a todo list application.", gotVars["description"])
	assert.Equal(t, `["add tasks"]`, gotVars["features"])
	assert.NotEmpty(t, gotVars["shape_json"])
}

func TestFrontendShapeEmbedsProjectName(t *testing.T) {
	var gotVars map[string]any
	chain := stageChainFunc(func(_ context.Context, in *wfmodel.StageInput) (*schema.Message, error) {
		gotVars = in.Vars
		return schema.AssistantMessage(`{"frontend":{}}`, nil), nil
	})

	g := NewFrontendGenerator(chain, "gemini", "gemini-2.5-flash")
	_, err := g.Generate(context.Background(), testSpec())
	require.NoError(t, err)

	shape, _ := gotVars["shape_json"].(string)
	assert.Contains(t, shape, `"todo-app"`)
	assert.NotContains(t, shape, `"project-name"`)
}

func TestGeneratorFailureKinds(t *testing.T) {
	chain := stageChainFunc(func(_ context.Context, _ *wfmodel.StageInput) (*schema.Message, error) {
		return nil, fmt.Errorf("rate limited")
	})

	_, err := NewFrontendGenerator(chain, "gemini", "m").Generate(context.Background(), testSpec())
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeFrontendGenFailed, appErr.Code)
	assert.Equal(t, "Frontend generation failed", appErr.Message)

	_, err = NewBackendGenerator(chain, "gemini", "m").Generate(context.Background(), testSpec())
	require.Error(t, err)
	appErr = errors.AsAppError(err)
	assert.Equal(t, errors.CodeBackendGenFailed, appErr.Code)
	assert.Equal(t, "Backend generation failed", appErr.Message)
}
