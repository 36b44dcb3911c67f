// Package chain 组装生成工作流的 Eino 调用链
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	einoobs "webgen-ai-api/internal/observability/eino"
	wfmodel "webgen-ai-api/internal/workflow/model"
	wfnode "webgen-ai-api/internal/workflow/node"
	workflowport "webgen-ai-api/internal/workflow/port"
	workflowprompt "webgen-ai-api/internal/workflow/prompt"
	"webgen-ai-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// GenerationChain 单次"模板渲染 -> LLM 调用 -> 产出消息"的通用调用链。
// 三个生成阶段复用同一条链，仅提示词与输出 schema 不同。
type GenerationChain struct {
	factory  workflowport.ChatModelFactory
	workflow string
	promptID workflowprompt.PromptID

	// outputSchema 非空时优先走 response_format json_schema，
	// Provider 不支持时回退为纯提示词约束
	outputSchema map[string]any

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.StageInput, *schema.Message]
	chainErr  error
}

// NewGenerationChain 创建生成调用链
func NewGenerationChain(factory workflowport.ChatModelFactory, workflow string, promptID workflowprompt.PromptID, outputSchema map[string]any) *GenerationChain {
	return &GenerationChain{
		factory:      factory,
		workflow:     workflow,
		promptID:     promptID,
		outputSchema: outputSchema,
	}
}

// Invoke 执行一次生成调用
func (c *GenerationChain) Invoke(ctx context.Context, in *wfmodel.StageInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type generationChainState struct {
	In       *wfmodel.StageInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *GenerationChain) getChain() (compose.Runnable[*wfmodel.StageInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *GenerationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.StageInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.StageInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.StageInput) (*generationChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &generationChainState{In: in}, nil
		}),
		compose.WithNodeName(c.workflow+".init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *generationChainState) (*generationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(c.promptID)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, st.In.Vars)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName(c.workflow+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *generationChainState) (*generationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = einoobs.WithWorkflowProvider(ctx, c.workflow, strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, c.buildModelOptions(st.In, true)...)
			if err != nil && c.outputSchema != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"workflow", c.workflow,
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, c.buildModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(c.workflow+".llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *generationChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName(c.workflow+".finalize"),
	)

	return chain.Compile(ctx)
}

func (c *GenerationChain) buildModelOptions(in *wfmodel.StageInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}

	if enableSchema && c.outputSchema != nil {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   c.workflow,
					"strict": false,
					"schema": c.outputSchema,
				},
			},
		}))
	}

	return opts
}
