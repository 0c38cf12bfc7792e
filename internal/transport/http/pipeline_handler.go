package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	appmiddleware "github.com/lucbra21/audaxIndex/internal/middleware"
	"github.com/lucbra21/audaxIndex/internal/pipeline"
)

// RunRequest is the optional body of POST /api/pipeline/run
type RunRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

// RunResponse reports a run; Shared is set when the caller joined a run
// another request had already started
type RunResponse struct {
	*pipeline.Result
	Shared bool `json:"shared"`
}

// PipelineHandler triggers regeneration of the KPI tables
type PipelineHandler struct {
	runner       PipelineRunner
	validator    *appmiddleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
	runTimeout   time.Duration
}

// NewPipelineHandler creates a new pipeline handler. runTimeout bounds how long
// the run response may take to write.
func NewPipelineHandler(runner PipelineRunner, errorHandler *apierrors.ErrorHandler, runTimeout time.Duration, logger *slog.Logger) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{
		runner:       runner,
		validator:    appmiddleware.NewValidator(),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "pipeline")),
		runTimeout:   runTimeout,
	}
}

// Routes returns the pipeline routes. limit wraps the run endpoint only;
// nil leaves it unlimited.
func (h *PipelineHandler) Routes(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/run", h.Run)
	})
	r.Get("/last", h.Last)
	return r
}

// Run handles POST /api/pipeline/run. The response is written once the run
// finishes; a failed run answers 422 with the same body.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.runTimeout > 0 {
		// the server write timeout is shorter than a run; errors mean the
		// writer does not support deadlines
		_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(h.runTimeout + 10*time.Second))
	}

	h.logger.InfoContext(r.Context(), "pipeline run requested",
		slog.String("reason", req.Reason),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	result, shared := h.runner.Run(r.Context())
	if result == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrPipelineExecution("run produced no result"))
		return
	}
	if !result.Success {
		render.Status(r, http.StatusUnprocessableEntity)
	}
	render.JSON(w, r, RunResponse{Result: result, Shared: shared})
}

// Last handles GET /api/pipeline/last
func (h *PipelineHandler) Last(w http.ResponseWriter, r *http.Request) {
	result := h.runner.LastResult()
	if result == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("pipeline run"))
		return
	}
	render.JSON(w, r, RunResponse{Result: result})
}
