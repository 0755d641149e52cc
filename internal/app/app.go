package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"arvaiapulse/internal/config"
	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/internal/dataset"
	"arvaiapulse/internal/errors"
	"arvaiapulse/internal/infrastructure"
	"arvaiapulse/internal/insights"
	customMiddleware "arvaiapulse/internal/middleware"
	"arvaiapulse/internal/services"
	handlers "arvaiapulse/internal/transport/http"
	ws "arvaiapulse/internal/websocket"
	"arvaiapulse/pkg/contracts"
	"arvaiapulse/pkg/contracts/domain"
)

const AppName = "Arvaia Pulse - distribuzione settimanale"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer

	errorHandler *errors.ErrorHandler
	validator    *customMiddleware.ValidationMiddleware
	summarizer   insights.Summarizer
	watcher      *dataset.Watcher
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dataset   *services.DatasetService
	Dashboard *services.DashboardService
	Insights  *services.InsightsService
	Export    *services.ExportService
	Health    *services.HealthService
}

// NewApplication loads configuration and the logger from the environment and
// builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, infrastructure.DefaultOTelConfig())
}

// New wires an application from explicit configuration. A nil otelCfg uses
// the defaults.
func New(cfg *config.Config, logger *slog.Logger, otelCfg *infrastructure.OTelConfig) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetFullVersionString()))

	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	errorHandler := errors.NewErrorHandler(logger, false)
	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  errorHandler,
		validator:     customMiddleware.NewValidationMiddleware(logger, errorHandler),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	ctx := context.Background()

	wsMetrics, err := ws.NewOTelMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, wsMetrics)
	hub.Start()
	a.WebSocketHub = hub

	monday, err := a.Config.WeekOneMonday()
	if err != nil {
		return fmt.Errorf("invalid week one monday: %w", err)
	}
	calendar := dataprocessing.NewCalendar(monday)

	// A missing source is not fatal: the server starts and reports not ready.
	source, err := dataset.FromConfig(a.Config.Dataset)
	if err != nil {
		a.Logger.WarnContext(ctx, "dataset source unavailable",
			slog.String("source", a.Config.Dataset.Source),
			slog.String("error", err.Error()))
		source = nil
	}

	data := services.NewDatasetService(source, calendar, a.Metrics, a.Logger)
	data.Subscribe(func(ctx context.Context, info domain.DatasetInfo) {
		hub.Broadcast(ws.TypeDatasetReloaded, info)
	})

	if a.Config.Dataset.Watch {
		a.watcher = a.newDatasetWatcher(ctx, source, data)
	}

	a.summarizer = insights.New(ctx, a.Config.Insights, a.Logger)
	dashboard := services.NewDashboardService(data, a.Logger)

	a.Services = &ServiceContainer{
		Dataset:   data,
		Dashboard: dashboard,
		Insights:  services.NewInsightsService(data, a.summarizer, a.Config.Insights.Timeout, a.Metrics, a.Logger),
		Export:    services.NewExportService(dashboard, a.Metrics, a.Logger),
		Health:    services.NewHealthService(contracts.Version, data, hub, a.Logger),
	}
	return nil
}

// newDatasetWatcher returns a watcher that reloads data when the file behind
// source changes, or nil for sources that are not local files.
func (a *Application) newDatasetWatcher(ctx context.Context, source dataset.Source, data *services.DatasetService) *dataset.Watcher {
	var path string
	switch src := source.(type) {
	case *dataset.FileSource:
		path = src.Path
	case *dataset.XLSXSource:
		path = src.Path
	default:
		a.Logger.WarnContext(ctx, "dataset watch ignored for non-file source",
			slog.String("source", a.Config.Dataset.Source))
		return nil
	}

	w, err := dataset.NewWatcher(path, a.Config.Dataset.WatchDebounce, func(ctx context.Context) {
		if _, err := data.Reload(ctx); err != nil {
			a.Logger.WarnContext(ctx, "reload after file change failed", slog.String("error", err.Error()))
		}
	}, a.Logger)
	if err != nil {
		a.Logger.WarnContext(ctx, "dataset watch disabled", slog.String("error", err.Error()))
		return nil
	}
	return w
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that doesn't wrap the ResponseWriter, so /ws can hijack it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle("/ws", handlers.NewWebSocketHandler(
		a.WebSocketHub,
		a.Config.WebSocket,
		a.Config.Security.AllowedOrigins,
		a.errorHandler,
		a.Logger,
	))
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Compress(5))

			r.Mount("/dashboard", handlers.NewDashboardHandler(
				a.Services.Dashboard,
				a.Services.Insights,
				a.validator,
				a.errorHandler,
				a.Logger,
			).Routes())

			r.Mount("/export", handlers.NewExportHandler(
				a.Services.Export,
				a.validator,
				a.errorHandler,
				a.Logger,
			).Routes())
		})

		r.Mount("/dataset", handlers.NewDatasetHandler(
			a.Services.Dataset,
			a.validator,
			a.errorHandler,
			a.Config.Server.MaxUploadBytes,
			a.Logger,
		).Routes())
	})
}

// getCORSConfig builds the CORS policy from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := make([]string, 0, len(a.Config.Security.AllowedOrigins))
	for _, origin := range a.Config.Security.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		// Credentials cannot be combined with a wildcard origin.
		AllowCredentials: !contains(origins, "*"),
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// LoadDataset performs the initial dataset load. Failure leaves the server
// up but not ready.
func (a *Application) LoadDataset(ctx context.Context) {
	info, err := a.Services.Dataset.Reload(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "initial dataset load failed",
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "initial dataset loaded",
		slog.Int("records", info.RecordCount),
		slog.Int("season", info.Season))
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("dataset_source", a.Config.Dataset.Source),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.LoadDataset(ctx)

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.Logger.WarnContext(ctx, "dataset watch disabled", slog.String("error", err.Error()))
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Close(shutdownCtx)
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Close releases everything but the HTTP server: the file watcher, the hub,
// the model clients and the telemetry providers.
func (a *Application) Close(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.WebSocketHub.Stop()

	if closer, ok := a.summarizer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing insights clients", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
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
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck checks that the exports directory is writable
// and the configured dataset file exists.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	var warnings []string

	if err := paths.EnsureDirectories(); err != nil {
		warnings = append(warnings, err.Error())
	} else {
		testFile := filepath.Join(paths.ExportsDir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("exports directory not writable: %s", paths.ExportsDir))
		} else {
			os.Remove(testFile)
		}
	}

	if a.Config.Dataset.Source != config.SourceSheets && !config.FileExists(a.Config.Dataset.Path) {
		warnings = append(warnings, fmt.Sprintf("dataset not found: %s", a.Config.Dataset.Path))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed",
		slog.Duration("request_timeout", a.Config.Server.RequestTimeout),
		slog.Duration("insights_timeout", a.Config.Insights.Timeout),
		slog.Time("checked_at", time.Now()))
	return nil
}
