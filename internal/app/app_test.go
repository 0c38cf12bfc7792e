package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucbra21/audaxIndex/internal/config"
	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/services"
	"github.com/lucbra21/audaxIndex/internal/shared/testutil"
	ws "github.com/lucbra21/audaxIndex/internal/websocket"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	inputs := testutil.WriteKPIInputs(t, dir)

	cfg := config.Default()
	cfg.Inputs.TeamMatchFile = inputs.TeamMatch
	cfg.Inputs.MatchesFile = inputs.Matches
	cfg.Inputs.SeasonStatsFile = inputs.SeasonStats
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Export = config.ExportConfig{}
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	return app
}

func doRequest(t *testing.T, handler http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]interface{}
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	router := app.Router

	rec, body := doRequest(t, router, http.MethodGet, "/api/tables/df_final")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeTableNotFound, body["type"])
	assert.NotEmpty(t, body["trace_id"])

	rec, body = doRequest(t, router, http.MethodPost, "/api/pipeline/run")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])

	tests := []struct {
		name string
		path string
	}{
		{name: "health", path: "/api/health"},
		{name: "final table", path: "/api/tables/df_final"},
		{name: "top values", path: "/api/tables/df_GoalKPIs_TopValues"},
		{name: "rankings", path: "/api/rankings?kpi=gei"},
		{name: "stats", path: "/api/kpis/GPI/stats"},
		{name: "teams", path: "/api/teams"},
		{name: "profile", path: "/api/teams/Colo-Colo/profile"},
		{name: "matches", path: "/api/teams/Colo-Colo/matches"},
		{name: "comparison", path: "/api/matches/3902/comparison"},
		{name: "last run", path: "/api/pipeline/last"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, router, http.MethodGet, tt.path)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}

	t.Run("regeneration is rate limited", func(t *testing.T) {
		rec, body := doRequest(t, router, http.MethodPost, "/api/pipeline/run")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, apierrors.TypeRateLimit, body["type"])
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec, body := doRequest(t, router, http.MethodGet, "/api/nothing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeNotFound, body["type"])
	})

	t.Run("wrong method", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodDelete, "/api/teams")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodGet, "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "kpi_pipeline_runs")
		assert.Contains(t, rec.Body.String(), "http_requests")
	})
}

func TestApplication_WebSocketStreamsRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enabled = false
	app := newTestApp(t, cfg)
	app.WebSocketHub.Start()
	t.Cleanup(func() { app.WebSocketHub.Stop(context.Background()) })

	server := httptest.NewServer(app.Router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}
	require.Equal(t, ws.TypeConnection, read().Type)

	resp, err := http.Post(server.URL+"/api/pipeline/run", "application/json", strings.NewReader(`{"reason":"test"}`))
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var progress int
	for {
		msg := read()
		if msg.Type == services.MessageTypeComplete {
			break
		}
		assert.Equal(t, services.MessageTypeProgress, msg.Type)
		progress++
	}
	assert.Equal(t, 14, progress)
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = config.ScheduleConfig{Cron: "0 6 * * *", Timezone: "America/Santiago", RunOnStart: true}
	app := newTestApp(t, cfg)
	require.NotNil(t, app.Scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	_, port, err := net.SplitHostPort(app.Addr())
	require.NoError(t, err)
	healthURL := "http://127.0.0.1:" + port + "/api/health"

	resp, err := http.Get(healthURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))

	// Stop waits for the startup run
	assert.FileExists(t, cfg.GetPaths().TablePath(config.TableFinal))
	require.NotNil(t, app.PipelineService.LastResult())
	assert.True(t, app.PipelineService.LastResult().Success)

	_, err = http.Get(healthURL)
	assert.Error(t, err)
}

func TestNew_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule config.ScheduleConfig
		want     string
	}{
		{name: "bad cron", schedule: config.ScheduleConfig{Cron: "every morning"}, want: "invalid schedule"},
		{name: "bad timezone", schedule: config.ScheduleConfig{Cron: "@daily", Timezone: "Mars/Olympus"}, want: "invalid schedule timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Schedule = tt.schedule
			logger, _ := testutil.NewTestLogger(t)

			_, err := New(cfg, logger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
