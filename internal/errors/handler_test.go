package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucbra21/audaxIndex/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "table not generated",
			err:        TableNotFoundError("df_final"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeTableNotFound,
			wantCode:   "TABLE_NOT_FOUND",
		},
		{
			name:       "invalid parameter",
			err:        InvalidParameter("kpi", "unknown KPI"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "INVALID_PARAMETER",
		},
		{
			name:       "app not found",
			err:        NewNotFoundError("team Everton"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "wrapped app validation",
			err:        fmt.Errorf("query: %w", NewAppValidationError("match 1 has 3 team rows, expected 2")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "merge key",
			err:        NewMergeKeyError("GoalKPIs merge", []string{"A (1)"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMergeKey,
			wantCode:   "MERGE_KEY",
		},
		{
			name:       "storage failure hides message",
			err:        NewStorageError("rename /secret/path", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantCode:   "STORAGE",
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("run: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/teams", body["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			if tt.wantStatus >= 500 {
				assert.NotContains(t, rec.Body.String(), "/secret/path")
				testutil.AssertLogged(t, logs, slog.LevelError, "request failed")
			} else {
				testutil.AssertLogged(t, logs, slog.LevelWarn, "request failed")
			}
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(nil, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_TableHintInDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tables/df_final", nil)

	NewErrorHandler(nil, false).HandleError(rec, req, TableNotFoundError("df_final"))

	details, ok := decodeProblem(t, rec)["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "df_final", details["table"])
	assert.Contains(t, details["hint"], "regenerate")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	h := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/teams", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestErrorMiddleware_RecoversAndLogs(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)
	mw := NewErrorMiddleware(h, logger)

	panicking := mw.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("exploded")
	}))
	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "exploded", body["panic"])
	testutil.AssertLogged(t, logs, slog.LevelError, "panic recovered")
	testutil.AssertLogged(t, logs, slog.LevelError, "http request")

	ok := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec = httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health?verbose=1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	testutil.AssertLogged(t, logs, slog.LevelInfo, "http request")
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(NewErrorHandler(nil, false))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("x") }))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "stack")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/not-found","title":"Not Found","status":404,"instance":"/x","trace_id":"abc"}`, string(out))
}
