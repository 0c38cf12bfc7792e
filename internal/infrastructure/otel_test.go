package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucbra21/audaxIndex/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel_Prometheus(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		ServiceName:    "audax-kpi-test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordRun(context.Background(), 1500*time.Millisecond, true)
	metrics.RecordStage(context.Background(), "indices", 20*time.Millisecond, true)
	metrics.RecordSubstitutions(context.Background(), "GEI", 2)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kpi_pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), "kpi_sentinel_substitutions_total")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "none"}, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Tracer)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger", MetricExporter: "none"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordRun(context.Background(), time.Second, false)
		m.RecordStage(context.Background(), "load", time.Second, false)
		m.RecordSubstitutions(context.Background(), "GEI", 2)
		m.RecordDegenerate(context.Background(), "PGC")
		m.RecordMergeMisses(context.Background(), "goalkpis", 1)
		m.RecordRowsWritten(context.Background(), "df_final", 10)
	})
}
