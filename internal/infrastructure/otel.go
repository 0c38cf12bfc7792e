package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucbra21/audaxIndex/internal/config"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "audaxindex"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel initializes tracing and metrics according to the telemetry config.
// Disabled exporters fall back to no-op providers so callers never need nil checks.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
	}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "none", "":
		return nil
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
		otel.SetTracerProvider(tp)
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
}

// initializeMetrics sets up OpenTelemetry metrics backed by a private Prometheus registry
func initializeMetrics(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "none", "":
		return nil
	case "prometheus":
		registry := promclient.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics are the instruments recorded by pipeline runs
type PipelineMetrics struct {
	RunsTotal             metric.Int64Counter
	RunDuration           metric.Float64Histogram
	StageDuration         metric.Float64Histogram
	RowsWritten           metric.Int64Counter
	SentinelSubstitutions metric.Int64Counter
	DegenerateRanges      metric.Int64Counter
	MergeMisses           metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on the given meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	runsTotal, err := meter.Int64Counter(
		"kpi_pipeline_runs_total",
		metric.WithDescription("Total number of KPI pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"kpi_pipeline_run_duration_seconds",
		metric.WithDescription("KPI pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"kpi_pipeline_stage_duration_seconds",
		metric.WithDescription("KPI pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"kpi_table_rows_written_total",
		metric.WithDescription("Rows written per persisted table"),
	)
	if err != nil {
		return nil, err
	}

	sentinels, err := meter.Int64Counter(
		"kpi_sentinel_substitutions_total",
		metric.WithDescription("Undefined raw index values replaced by the sentinel"),
	)
	if err != nil {
		return nil, err
	}

	degenerate, err := meter.Int64Counter(
		"kpi_degenerate_ranges_total",
		metric.WithDescription("Constant columns scaled to the range midpoint"),
	)
	if err != nil {
		return nil, err
	}

	mergeMisses, err := meter.Int64Counter(
		"kpi_merge_misses_total",
		metric.WithDescription("Team ids without a counterpart in a team-id merge"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:             runsTotal,
		RunDuration:           runDuration,
		StageDuration:         stageDuration,
		RowsWritten:           rowsWritten,
		SentinelSubstitutions: sentinels,
		DegenerateRanges:      degenerate,
		MergeMisses:           mergeMisses,
	}, nil
}

// RecordRun records the outcome and duration of one pipeline run
func (m *PipelineMetrics) RecordRun(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := attribute.String("status", "success")
	if !success {
		status = attribute.String("status", "failure")
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(status))
	m.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
}

// RecordStage records the duration of one stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, stageID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stageID),
		attribute.String("status", status),
	))
}

// RecordSubstitutions counts sentinel replacements for one index
func (m *PipelineMetrics) RecordSubstitutions(ctx context.Context, index string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SentinelSubstitutions.Add(ctx, int64(n), metric.WithAttributes(attribute.String("index", index)))
}

// RecordDegenerate counts one constant column scaled to the midpoint
func (m *PipelineMetrics) RecordDegenerate(ctx context.Context, column string) {
	if m == nil {
		return
	}
	m.DegenerateRanges.Add(ctx, 1, metric.WithAttributes(attribute.String("column", column)))
}

// RecordMergeMisses counts teams left unmatched by a team-id merge
func (m *PipelineMetrics) RecordMergeMisses(ctx context.Context, merge string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MergeMisses.Add(ctx, int64(n), metric.WithAttributes(attribute.String("merge", merge)))
}

// RecordRowsWritten counts the rows persisted for one table
func (m *PipelineMetrics) RecordRowsWritten(ctx context.Context, table string, n int) {
	if m == nil {
		return
	}
	m.RowsWritten.Add(ctx, int64(n), metric.WithAttributes(attribute.String("table", table)))
}

// HTTPMetrics are the instruments recorded by the API server
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// CreateHTTPMetrics creates the HTTP instruments on the given meter
func CreateHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	requests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of HTTP requests in flight"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{RequestsTotal: requests, RequestDuration: duration, ActiveRequests: active}, nil
}
