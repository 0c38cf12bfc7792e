package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucbra21/audaxIndex/internal/config"
	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/pipeline"
	"github.com/lucbra21/audaxIndex/internal/services"
)

// MockKPIQueries is a mock implementation of KPIQueries
type MockKPIQueries struct {
	mock.Mock
}

func (m *MockKPIQueries) Table(ctx context.Context, name string) (*services.TableView, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TableView), args.Error(1)
}

func (m *MockKPIQueries) Rankings(ctx context.Context, kpi string) (*services.RankingView, error) {
	args := m.Called(ctx, kpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RankingView), args.Error(1)
}

func (m *MockKPIQueries) Stats(ctx context.Context, kpi string) (*services.StatsView, error) {
	args := m.Called(ctx, kpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StatsView), args.Error(1)
}

func (m *MockKPIQueries) Teams(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKPIQueries) TeamProfile(ctx context.Context, team string) (*services.ProfileView, error) {
	args := m.Called(ctx, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProfileView), args.Error(1)
}

func (m *MockKPIQueries) TeamMatches(ctx context.Context, team string) (*services.TeamMatchesView, error) {
	args := m.Called(ctx, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TeamMatchesView), args.Error(1)
}

func (m *MockKPIQueries) Comparison(ctx context.Context, matchID string) (*services.ComparisonView, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ComparisonView), args.Error(1)
}

// MockPipelineRunner is a mock implementation of PipelineRunner
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context) (*pipeline.Result, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*pipeline.Result), args.Bool(1)
}

func (m *MockPipelineRunner) LastResult() *pipeline.Result {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*pipeline.Result)
}

type fixedClients int

func (c fixedClients) ClientCount() int { return int(c) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kpiRouter(q KPIQueries) http.Handler {
	h := NewKPIHandler(q, apierrors.NewErrorHandler(quietLogger(), false), quietLogger())
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestKPIHandler_Routes(t *testing.T) {
	missing := &services.TableMissingError{Table: "df_final", Err: os.ErrNotExist}

	tests := []struct {
		name       string
		path       string
		setup      func(m *MockKPIQueries)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "table",
			path: "/api/tables/df_final",
			setup: func(m *MockKPIQueries) {
				m.On("Table", mock.Anything, "df_final").Return(&services.TableView{
					Name: "df_final", Header: []string{"team_name"}, Rows: [][]string{{"Colo-Colo"}},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "df_final", body["name"])
				assert.Len(t, body["rows"], 1)
			},
		},
		{
			name: "table not generated",
			path: "/api/tables/df_final",
			setup: func(m *MockKPIQueries) {
				m.On("Table", mock.Anything, "df_final").Return(nil, missing)
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeTableNotFound, body["type"])
				assert.Equal(t, "TABLE_NOT_FOUND", body["error_code"])
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "df_final", details["table"])
				assert.Contains(t, details["hint"], "/api/pipeline/run")
			},
		},
		{
			name: "unknown table",
			path: "/api/tables/secrets",
			setup: func(m *MockKPIQueries) {
				m.On("Table", mock.Anything, "secrets").Return(nil, apierrors.NewNotFoundError("table secrets"))
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeNotFound, body["type"])
			},
		},
		{
			name: "rankings default to gpi",
			path: "/api/rankings",
			setup: func(m *MockKPIQueries) {
				m.On("Rankings", mock.Anything, "gpi").Return(&services.RankingView{KPI: "GPI", Column: "GPI"}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "GPI", body["kpi"])
			},
		},
		{
			name: "rankings invalid kpi",
			path: "/api/rankings?kpi=xyz",
			setup: func(m *MockKPIQueries) {
				m.On("Rankings", mock.Anything, "xyz").Return(nil, apierrors.NewAppValidationError("unknown KPI xyz"))
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeValidation, body["type"])
				assert.Equal(t, "unknown KPI xyz", body["detail"])
			},
		},
		{
			name: "stats",
			path: "/api/kpis/corner/stats",
			setup: func(m *MockKPIQueries) {
				m.On("Stats", mock.Anything, "corner").Return(&services.StatsView{KPI: "corner", Count: 3}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(3), body["count"])
			},
		},
		{
			name: "teams",
			path: "/api/teams",
			setup: func(m *MockKPIQueries) {
				m.On("Teams", mock.Anything).Return([]string{"Audax Italiano", "Colo-Colo"}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(2), body["count"])
			},
		},
		{
			name: "team profile with encoded name",
			path: "/api/teams/Audax%20Italiano/profile",
			setup: func(m *MockKPIQueries) {
				m.On("TeamProfile", mock.Anything, "Audax Italiano").Return(&services.ProfileView{Team: "Audax Italiano", Rank: 1}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Audax Italiano", body["team"])
			},
		},
		{
			name: "team matches unknown team",
			path: "/api/teams/Nobody/matches",
			setup: func(m *MockKPIQueries) {
				m.On("TeamMatches", mock.Anything, "Nobody").Return(nil, apierrors.NewNotFoundError("team Nobody"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "comparison",
			path: "/api/matches/3901/comparison",
			setup: func(m *MockKPIQueries) {
				m.On("Comparison", mock.Anything, "3901").Return(&services.ComparisonView{MatchID: "3901", MatchWeek: 1}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "3901", body["match_id"])
			},
		},
		{
			name: "internal error hides detail",
			path: "/api/teams",
			setup: func(m *MockKPIQueries) {
				m.On("Teams", mock.Anything).Return(nil, errors.New("disk on fire"))
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.NotContains(t, body["detail"], "disk on fire")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockKPIQueries)
			tt.setup(q)

			rec := httptest.NewRecorder()
			kpiRouter(q).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decodeBody(t, rec))
			}
			q.AssertExpectations(t)
		})
	}
}

func pipelineRouter(runner PipelineRunner) http.Handler {
	h := NewPipelineHandler(runner, apierrors.NewErrorHandler(quietLogger(), false), time.Minute, quietLogger())
	r := chi.NewRouter()
	r.Mount("/api/pipeline", h.Routes(nil))
	return r
}

func TestPipelineHandler_Run(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     *pipeline.Result
		shared     bool
		wantStatus int
		wantReason string
	}{
		{
			name:       "success",
			result:     &pipeline.Result{Success: true, Reason: pipeline.SuccessReason, RunID: "r1"},
			wantStatus: http.StatusOK,
			wantReason: pipeline.SuccessReason,
		},
		{
			name:       "joined run with reason",
			body:       `{"reason":"new matchweek"}`,
			result:     &pipeline.Result{Success: true, Reason: pipeline.SuccessReason, RunID: "r1"},
			shared:     true,
			wantStatus: http.StatusOK,
			wantReason: pipeline.SuccessReason,
		},
		{
			name:       "failed run",
			result:     &pipeline.Result{Success: false, Reason: "Error generating CSV files: missing", ErrorType: "MISSING_INPUT"},
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "Error generating CSV files: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockPipelineRunner)
			runner.On("Run", mock.Anything).Return(tt.result, tt.shared).Once()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader(tt.body))
			pipelineRouter(runner).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantReason, body["reason"])
			assert.Equal(t, tt.result.Success, body["success"])
			assert.Equal(t, tt.shared, body["shared"])
			runner.AssertExpectations(t)
		})
	}
}

func TestPipelineHandler_RejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"reason":`},
		{name: "unknown field", body: `{"force":true}`},
		{name: "reason too long", body: `{"reason":"` + strings.Repeat("x", 201) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockPipelineRunner)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader(tt.body))
			pipelineRouter(runner).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierrors.TypeValidation, decodeBody(t, rec)["type"])
			runner.AssertNotCalled(t, "Run", mock.Anything)
		})
	}
}

func TestPipelineHandler_Last(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("LastResult").Return(nil).Once()
	runner.On("LastResult").Return(&pipeline.Result{Success: true, RunID: "r7"}).Once()
	router := pipelineRouter(runner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/last", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/last", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r7", decodeBody(t, rec)["run_id"])
}

func TestHealthHandler(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir, filepath.Join(dir, "logs"))
	runner := new(MockPipelineRunner)
	runner.On("LastResult").Return(nil).Once()
	runner.On("LastResult").Return(&pipeline.Result{Success: true, RunID: "r1", Reason: pipeline.SuccessReason})
	h := NewHealthHandler("1.2.0", paths, fixedClients(2), runner, quietLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["tables_ready"])
	assert.Equal(t, float64(2), body["websocket_clients"])
	assert.Nil(t, body["last_run"])

	require.NoError(t, os.WriteFile(paths.TablePath(config.TableFinal), []byte("team_name\n"), 0o644))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	body = decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.0", body["version"])
	assert.Equal(t, true, body["tables_ready"])
	lastRun := body["last_run"].(map[string]interface{})
	assert.Equal(t, "r1", lastRun["run_id"])
}
