package services

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lucbra21/audaxIndex/internal/config"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
	"github.com/lucbra21/audaxIndex/internal/pipeline"
)

// WebSocket message types sent during a run
const (
	MessageTypeProgress = "pipeline_progress"
	MessageTypeComplete = "pipeline_complete"
)

const runKey = "kpi-pipeline"

// WebSocketHub interface for broadcasting updates
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// ProgressMessage is the payload of a pipeline_progress broadcast
type ProgressMessage struct {
	pipeline.Progress
	Percent float64 `json:"percent"`
}

// PipelineService runs the KPI pipeline on demand. Only one run is in flight at
// a time; callers arriving during a run receive its result.
type PipelineService struct {
	cfg     *config.Config
	hub     WebSocketHub
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger

	// newManager is replaced in tests
	newManager func(cfg *config.Config, logger *slog.Logger) *pipeline.Manager

	group singleflight.Group
	mu    sync.RWMutex
	last  *pipeline.Result
}

// NewPipelineService creates a pipeline service. hub may be nil.
func NewPipelineService(cfg *config.Config, hub WebSocketHub, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{
		cfg:        cfg,
		hub:        hub,
		logger:     logger.With(slog.String("service", "pipeline")),
		newManager: pipeline.NewManager,
	}
}

// SetMetrics sets the instruments passed to every run
func (s *PipelineService) SetMetrics(metrics *infrastructure.PipelineMetrics) {
	s.metrics = metrics
}

// Run regenerates every table. shared is true when the result came from a run
// started by another caller. The run is detached from ctx cancellation and
// bounded by the configured run timeout, so a dropped request never leaves a
// half-finished batch behind.
func (s *PipelineService) Run(ctx context.Context) (result *pipeline.Result, shared bool) {
	v, _, shared := s.group.Do(runKey, func() (interface{}, error) {
		return s.execute(ctx), nil
	})
	result = v.(*pipeline.Result)
	if shared {
		s.logger.InfoContext(ctx, "joined running pipeline", slog.String("run_id", result.RunID))
	}
	return result, shared
}

func (s *PipelineService) execute(ctx context.Context) *pipeline.Result {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.RunTimeout)
	defer cancel()

	manager := s.newManager(s.cfg, s.logger)
	manager.SetMetrics(s.metrics)
	if s.hub != nil {
		manager.SetProgressReporter(pipeline.ProgressFunc(func(p pipeline.Progress) {
			s.hub.Broadcast(MessageTypeProgress, ProgressMessage{Progress: p, Percent: p.Percent()})
		}))
	}

	result := manager.Run(runCtx)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(MessageTypeComplete, result)
	}
	return result
}

// LastResult returns the result of the most recent run, or nil before the first
func (s *PipelineService) LastResult() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
