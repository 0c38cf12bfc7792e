package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRequestID(t *testing.T) {
	var seen, trace string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetReqID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, seen, trace)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.5, 1, apierrors.NewErrorHandler(nil, false), nil)
	handler := limiter.Handler(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeRateLimit, body["type"])
}

func TestCORS(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"http://dash.local"}})(http.HandlerFunc(ok))

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://dash.local", wantStatus: http.StatusOK, wantAllow: "http://dash.local"},
		{name: "other origin", method: http.MethodGet, origin: "http://evil.local", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "http://dash.local", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "http://dash.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/teams", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddleware_RecordsRoute(t *testing.T) {
	m, err := NewOTelMiddleware(nil, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/teams/{team}/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/teams/{team}/profile", routePattern(r))
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams/Colo-Colo/profile", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

type runRequest struct {
	Reason  string `json:"reason" validate:"max=10"`
	Exports string `json:"exports" validate:"omitempty,oneof=csv all"`
}

func TestValidator_DecodeJSON(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{name: "empty body", body: ""},
		{name: "valid", body: `{"reason":"cron","exports":"all"}`},
		{name: "malformed", body: `{"reason":`, wantCode: "INVALID_REQUEST"},
		{name: "unknown field", body: `{"mode":"full"}`, wantCode: "INVALID_REQUEST"},
		{name: "too long", body: `{"reason":"a very long reason"}`, wantCode: "VALIDATION_FAILED", wantMsg: "reason must be at most 10"},
		{name: "bad enum", body: `{"exports":"pdf"}`, wantCode: "VALIDATION_FAILED", wantMsg: "exports must be one of: csv, all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst runRequest
			err := v.DecodeJSON(req, &dst)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			if tt.wantMsg != "" {
				details := apiErr.Details.(apierrors.ValidationErrors)
				require.Len(t, details.Errors, 1)
				assert.Contains(t, details.Errors[0].Message, tt.wantMsg)
			}
		})
	}
}
