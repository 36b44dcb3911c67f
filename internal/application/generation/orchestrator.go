package generation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"webgen-ai-api/pkg/logger"
	"webgen-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("generation")

// 流水线阶段名，用于指标与日志
const (
	StageEnhancing          = "enhancing_prompt"
	StageGeneratingFrontend = "generating_frontend"
	StageGeneratingBackend  = "generating_backend"
	StageWritingFiles       = "writing_files"
	StageCreatingArchive    = "creating_archive"
)

// AgentsUsed 各阶段实际使用的模型名
type AgentsUsed struct {
	PromptEnhancer    string `json:"prompt_enhancer"`
	FrontendGenerator string `json:"frontend_generator"`
	BackendGenerator  string `json:"backend_generator"`
}

// Outcome 一次流水线运行的成功结果
type Outcome struct {
	ProjectName    string
	EnhancedPrompt string
	FilesPath      string
	ZipPath        string
	AgentsUsed     AgentsUsed
}

// Orchestrator 顺序执行五个阶段的生成流水线。
// 任一阶段失败立即终止，错误原样向上传递。
type Orchestrator struct {
	enhancer PromptEnhancer
	frontend CodeGenerator
	backend  CodeGenerator
	store    ProjectStore
}

// NewOrchestrator 创建流水线编排器
func NewOrchestrator(enhancer PromptEnhancer, frontend, backend CodeGenerator, store ProjectStore) *Orchestrator {
	return &Orchestrator{
		enhancer: enhancer,
		frontend: frontend,
		backend:  backend,
		store:    store,
	}
}

// Run 执行完整的生成流水线
func (o *Orchestrator) Run(ctx context.Context, prompt string) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "generation.Run")
	defer span.End()

	start := time.Now()

	outcome, err := o.run(ctx, prompt)
	elapsed := time.Since(start).Seconds()
	metrics.PipelineDuration.Observe(elapsed)
	if err != nil {
		metrics.PipelineTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "generation pipeline failed", err, "duration_seconds", elapsed)
		return nil, err
	}

	metrics.PipelineTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.String("project.name", outcome.ProjectName))
	logger.Info(ctx, "generation pipeline completed",
		"project_name", outcome.ProjectName,
		"duration_seconds", elapsed,
	)
	return outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, prompt string) (*Outcome, error) {
	enhanced, err := runStage(ctx, StageEnhancing, func(ctx context.Context) (*EnhanceOutput, error) {
		return o.enhancer.Enhance(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	spec := enhanced.Spec
	ctx = logger.WithContext(ctx, logger.ProjectKey, spec.ProjectName)
	logger.Info(ctx, "prompt enhanced",
		"features", len(spec.Features),
		"pages", len(spec.Pages),
	)

	frontendOut, err := runStage(ctx, StageGeneratingFrontend, func(ctx context.Context) (*CodeOutput, error) {
		return o.frontend.Generate(ctx, spec)
	})
	if err != nil {
		return nil, err
	}

	backendOut, err := runStage(ctx, StageGeneratingBackend, func(ctx context.Context) (*CodeOutput, error) {
		return o.backend.Generate(ctx, spec)
	})
	if err != nil {
		return nil, err
	}

	filesPath, err := runStage(ctx, StageWritingFiles, func(ctx context.Context) (string, error) {
		return o.store.WriteProject(ctx, spec.ProjectName, frontendOut.Payload, backendOut.Payload)
	})
	if err != nil {
		return nil, err
	}

	zipPath, err := runStage(ctx, StageCreatingArchive, func(ctx context.Context) (string, error) {
		return o.store.CreateArchive(ctx, spec.ProjectName)
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		ProjectName:    spec.ProjectName,
		EnhancedPrompt: spec.EnhancedPrompt,
		FilesPath:      filesPath,
		ZipPath:        zipPath,
		AgentsUsed: AgentsUsed{
			PromptEnhancer:    enhanced.Model,
			FrontendGenerator: frontendOut.Model,
			BackendGenerator:  backendOut.Model,
		},
	}, nil
}

// runStage 执行单个阶段并记录阶段指标与 Span
func runStage[T any](ctx context.Context, stage string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "generation."+stage)
	defer span.End()

	logger.Info(ctx, "pipeline stage started", "stage", stage)
	start := time.Now()

	out, err := fn(ctx)
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageTotal.WithLabelValues(stage, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "pipeline stage failed", err, "stage", stage)
		return out, err
	}

	metrics.StageTotal.WithLabelValues(stage, "success").Inc()
	logger.Info(ctx, "pipeline stage completed",
		"stage", stage,
		"duration_seconds", time.Since(start).Seconds(),
	)
	return out, nil
}
