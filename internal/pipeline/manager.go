package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucbra21/audaxIndex/internal/config"
	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
)

// TracerName names the tracer of pipeline spans
const TracerName = "audaxindex.pipeline"

// Manager runs the stages of the KPI pipeline in order
type Manager struct {
	config   *config.Config
	stages   []Stage
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	progress ProgressReporter
}

// NewManager creates a manager running DefaultStages against cfg
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config: cfg,
		stages: DefaultStages(),
		logger: logger,
		tracer: otel.Tracer(TracerName),
	}
}

// SetStages replaces the stages to run
func (m *Manager) SetStages(stages ...Stage) {
	m.stages = stages
}

// SetMetrics sets the instruments recorded by each run
func (m *Manager) SetMetrics(metrics *infrastructure.PipelineMetrics) {
	m.metrics = metrics
}

// SetProgressReporter sets the receiver of stage transitions
func (m *Manager) SetProgressReporter(r ProgressReporter) {
	m.progress = r
}

// Stages returns the IDs of the configured stages in execution order
func (m *Manager) Stages() []string {
	ids := make([]string, len(m.stages))
	for i, s := range m.stages {
		ids[i] = s.ID()
	}
	return ids
}

// Run executes every stage once. The first failing stage stops the run and the
// remaining stages are skipped; nothing is persisted unless the export stage runs.
func (m *Manager) Run(ctx context.Context) *Result {
	state := NewState(m.config, m.logger)
	state.Metrics = m.metrics
	start := time.Now()

	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", state.RunID.String()),
			attribute.Int("pipeline.stage_count", len(m.stages)),
		),
	)
	defer span.End()

	logger := state.Logger
	logger.InfoContext(ctx, "pipeline run started", slog.Int("stage_count", len(m.stages)))

	steps := make([]*StepState, len(m.stages))
	for i, s := range m.stages {
		steps[i] = NewStepState(s.ID(), s.Name())
	}

	var runErr error
	var failed string
	for i, stage := range m.stages {
		step := steps[i]
		if runErr != nil {
			step.Skip(fmt.Sprintf("stage %s failed", failed))
			m.report(state, step, i)
			continue
		}

		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run cancelled before %s: %w", stage.ID(), err)
			step.Fail(runErr)
			m.report(state, step, i)
		} else {
			runErr = m.executeStage(ctx, state, stage, step, i)
		}
		if runErr != nil {
			failed = stage.ID()
		}
	}

	duration := time.Since(start)
	result := &Result{
		Success:    runErr == nil,
		RunID:      state.RunID.String(),
		StartedAt:  start,
		DurationMS: duration.Milliseconds(),
		Warnings:   state.Warnings,
		Files:      state.Files,
	}
	for _, step := range steps {
		result.Stages = append(result.Stages, step.Snapshot())
	}

	m.metrics.RecordRun(ctx, duration, result.Success)
	span.SetAttributes(
		attribute.Bool("pipeline.success", result.Success),
		attribute.Int("pipeline.warnings", len(result.Warnings)),
	)

	if runErr != nil {
		result.Reason = failureReason(runErr)
		result.ErrorType = string(apperrors.TypeOf(runErr))
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", runErr.Error()),
			slog.String("error_type", result.ErrorType),
			slog.Duration("duration", duration))
		return result
	}

	result.Reason = SuccessReason
	span.SetStatus(codes.Ok, "")
	logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("files", len(result.Files)),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", duration))
	return result
}

// executeStage runs one stage inside its own span. A panicking stage fails the run.
func (m *Manager) executeStage(ctx context.Context, state *State, stage Stage, step *StepState, index int) (err error) {
	ctx, span := m.tracer.Start(ctx, "pipeline.stage."+stage.ID(),
		trace.WithAttributes(attribute.String("stage.id", stage.ID())))
	defer span.End()

	step.Start()
	m.report(state, step, index)
	state.message = ""

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", stage.ID(), r)
		}

		m.metrics.RecordStage(ctx, stage.ID(), step.Duration(), err == nil)
		if err != nil {
			step.Fail(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			state.Logger.ErrorContext(ctx, "stage failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
		} else {
			step.Complete(state.message)
			state.Logger.InfoContext(ctx, "stage completed",
				slog.String("stage", stage.ID()),
				slog.String("summary", state.message),
				slog.Duration("duration", step.Duration()))
		}
		m.report(state, step, index)
	}()

	state.Logger.DebugContext(ctx, "executing stage",
		slog.String("stage", stage.ID()),
		slog.Int("stage_number", index+1),
		slog.Int("total_stages", len(m.stages)))

	return stage.Execute(ctx, state)
}

func (m *Manager) report(state *State, step *StepState, index int) {
	if m.progress == nil {
		return
	}
	snap := step.Snapshot()
	m.progress.ReportProgress(Progress{
		RunID:   state.RunID.String(),
		StageID: snap.ID,
		Name:    snap.Name,
		Status:  snap.Status,
		Step:    index + 1,
		Total:   len(m.stages),
		Message: snap.Message,
		Time:    time.Now(),
	})
}
