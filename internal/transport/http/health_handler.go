package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"

	"github.com/lucbra21/audaxIndex/internal/config"
)

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status           string        `json:"status"`
	Version          string        `json:"version"`
	Uptime           string        `json:"uptime"`
	TablesReady      bool          `json:"tables_ready"`
	WebSocketClients int           `json:"websocket_clients"`
	LastRun          *LastRunState `json:"last_run,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}

// LastRunState summarises the most recent pipeline run
type LastRunState struct {
	RunID     string    `json:"run_id"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason"`
	StartedAt time.Time `json:"started_at"`
}

// HealthHandler reports service liveness and whether the tables exist
type HealthHandler struct {
	version   string
	startTime time.Time
	paths     *config.Paths
	clients   ClientCounter
	runner    PipelineRunner
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler. clients and runner may be nil.
func NewHealthHandler(version string, paths *config.Paths, clients ClientCounter, runner PipelineRunner, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		paths:     paths,
		clients:   clients,
		runner:    runner,
		logger:    logger,
	}
}

// ServeHTTP handles GET /api/health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}

	if _, err := os.Stat(h.paths.TablePath(config.TableFinal)); err == nil {
		resp.TablesReady = true
	} else {
		// still healthy; the tables appear after the first run
		resp.Status = "degraded"
	}
	if h.clients != nil {
		resp.WebSocketClients = h.clients.ClientCount()
	}
	if h.runner != nil {
		if last := h.runner.LastResult(); last != nil {
			resp.LastRun = &LastRunState{
				RunID:     last.RunID,
				Success:   last.Success,
				Reason:    last.Reason,
				StartedAt: last.StartedAt,
			}
		}
	}

	h.logger.DebugContext(r.Context(), "health check", slog.String("status", resp.Status))
	render.JSON(w, r, resp)
}
