package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/robfig/cron/v3"

	"github.com/lucbra21/audaxIndex/internal/config"
	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
	customMiddleware "github.com/lucbra21/audaxIndex/internal/middleware"
	"github.com/lucbra21/audaxIndex/internal/services"
	handlers "github.com/lucbra21/audaxIndex/internal/transport/http"
	ws "github.com/lucbra21/audaxIndex/internal/websocket"
)

const (
	VERSION = infrastructure.ServiceVersion
	AppName = "Audax KPI Server"
)

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	WebSocketHub    *ws.Hub
	PipelineService *services.PipelineService
	KPIService      *services.KPIService
	Scheduler       *cron.Cron

	errorHandler *apierrors.ErrorHandler
	listener     net.Listener
	background   sync.WaitGroup
}

// NewApplication loads the configuration and logger and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the hub, the services and the optional schedule
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreatePipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	a.WebSocketHub = ws.NewHub(a.Logger)
	a.PipelineService = services.NewPipelineService(a.Config, a.WebSocketHub, a.Logger)
	a.PipelineService.SetMetrics(metrics)
	a.KPIService = services.NewKPIService(a.Config.GetPaths(), a.Logger)

	return a.setupScheduler()
}

// setupScheduler registers periodic regeneration when a cron expression is configured
func (a *Application) setupScheduler() error {
	schedule := a.Config.Schedule
	if schedule.Cron == "" {
		return nil
	}

	location := time.Local
	if schedule.Timezone != "" {
		loc, err := time.LoadLocation(schedule.Timezone)
		if err != nil {
			return fmt.Errorf("invalid schedule timezone %q: %w", schedule.Timezone, err)
		}
		location = loc
	}

	cronLogger := cronLogAdapter{logger: a.Logger.With(slog.String("component", "scheduler"))}
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(schedule.Cron, func() { a.regenerate("schedule") }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule.Cron, err)
	}
	a.Scheduler = c
	return nil
}

// regenerate runs the pipeline outside any request
func (a *Application) regenerate(trigger string) {
	ctx := infrastructure.EnsureTraceID(context.Background())
	result, shared := a.PipelineService.Run(ctx)
	a.Logger.InfoContext(ctx, "background regeneration finished",
		slog.String("trigger", trigger),
		slog.Bool("success", result.Success),
		slog.Bool("shared", shared),
		slog.String("reason", result.Reason))
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// The upgrade needs the raw ResponseWriter, so /ws stays outside the group
	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.Server.AllowedOrigins))

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Logger)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(apierrors.NewErrorMiddleware(a.errorHandler, a.Logger).Handler)
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
			MaxAge:         300,
		}))

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(VERSION, a.Config.GetPaths(), a.WebSocketHub, a.PipelineService, a.Logger)
	kpis := handlers.NewKPIHandler(a.KPIService, a.errorHandler, a.Logger)
	pipeline := handlers.NewPipelineHandler(a.PipelineService, a.errorHandler, a.Config.Server.RunTimeout, a.Logger)

	// Only regeneration is rate limited; reads are served from cached tables
	var limit func(http.Handler) http.Handler
	if rl := a.Config.RateLimit; rl.Enabled {
		limit = customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.errorHandler, a.Logger).Handler
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Method(http.MethodGet, "/health", health)
		kpis.RegisterRoutes(r)
		r.Mount("/pipeline", pipeline.Routes(limit))
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start binds the listener and starts the background services. A serve
// failure after startup calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("address", ln.Addr().String()),
		slog.String("data_dir", a.Config.Paths.DataDir),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	if a.Scheduler != nil {
		a.Scheduler.Start()
		a.Logger.InfoContext(ctx, "Regeneration schedule started",
			slog.String("cron", a.Config.Schedule.Cron),
			slog.Time("next_run", a.Scheduler.Entries()[0].Next))
	}

	if a.Config.Schedule.RunOnStart {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			a.regenerate("startup")
		}()
	}

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://%s", ln.Addr().String())))
	return nil
}

// Addr returns the bound address once Start has returned
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.Scheduler != nil {
		select {
		case <-a.Scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			a.Logger.WarnContext(ctx, "Scheduled run still in progress at shutdown")
		}
	}

	done := make(chan struct{})
	go func() {
		a.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.Logger.WarnContext(ctx, "Startup regeneration still in progress at shutdown")
	}

	if err := a.WebSocketHub.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("websocket hub shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline
	return a.Stop(context.Background())
}

// cronLogAdapter routes scheduler logs through slog
type cronLogAdapter struct {
	logger *slog.Logger
}

func (l cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
