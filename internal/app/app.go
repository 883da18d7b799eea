package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"yeogiro/internal/config"
	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/infrastructure"
	"yeogiro/internal/lifecycle"
	customMiddleware "yeogiro/internal/middleware"
	"yeogiro/internal/services"
	handlers "yeogiro/internal/transport/http"
	ws "yeogiro/internal/websocket"
	"yeogiro/pkg/contracts"
)

// AppName is logged at startup.
const AppName = "yeogiro disaster shelter API"

// ErrIncompleteStores is returned by NewApplication when a store is missing
// from WithStores.
var ErrIncompleteStores = errors.New("all four stores are required")

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	Router         *chi.Mux
	Server         *http.Server
	Lifecycle      *lifecycle.Manager
	WebSocketHub   *ws.Hub
	HealthService  *services.HealthService
	MessageService *services.MessageService
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.Metrics

	stores     Stores
	errors     *apierrors.ErrorHandler
	inflight   *customMiddleware.InFlight
	listener   net.Listener
	shutdownCh <-chan struct{}

	mu        sync.Mutex
	addr      string
	serveDone chan struct{}
	serveErr  error

	stopOnce sync.Once
	stopErr  error
}

type options struct {
	stores     *Stores
	logger     *slog.Logger
	banner     io.Writer
	listener   net.Listener
	shutdownCh <-chan struct{}
}

// Option configures NewApplication.
type Option func(*options)

// WithStores replaces the production stores, typically with fakes in tests.
func WithStores(s Stores) Option {
	return func(o *options) { o.stores = &s }
}

// WithLogger replaces the logger built from the logging configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBanner redirects the shutdown banner. The default is stdout.
func WithBanner(w io.Writer) Option {
	return func(o *options) { o.banner = w }
}

// WithListener serves on l instead of listening on the configured address.
func WithListener(l net.Listener) Option {
	return func(o *options) { o.listener = l }
}

// WithShutdownChannel makes Run stop when ch is closed or receives.
func WithShutdownChannel(ch <-chan struct{}) Option {
	return func(o *options) { o.shutdownCh = ch }
}

// NewApplication wires the application. Nothing is opened or bound until
// Start. A nil cfg is loaded with config.Load.
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		l, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var stores Stores
	if o.stores != nil {
		stores = *o.stores
	} else {
		stores = NewStores(cfg.Stores, logger)
	}
	if stores.Map == nil || stores.Document == nil || stores.Path == nil || stores.Emergency == nil {
		return nil, ErrIncompleteStores
	}

	lifecycleOpts := []lifecycle.Option{
		lifecycle.WithStartupTimeout(cfg.Server.StartupTimeout),
		lifecycle.WithRecorder(metrics),
	}
	if o.banner != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithBanner(o.banner))
	}
	manager := lifecycle.New(logger, lifecycleOpts...)
	if err := manager.Register(stores.handles()...); err != nil {
		return nil, fmt.Errorf("failed to register stores: %w", err)
	}

	hub := ws.NewHub(logger, metrics)

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		Lifecycle:      manager,
		WebSocketHub:   hub,
		HealthService:  services.NewHealthService(contracts.Version, manager, hub, logger),
		MessageService: services.NewMessageService(stores.Document, hub, logger),
		OTelProviders:  otelProviders,
		Metrics:        metrics,
		stores:         stores,
		errors:         apierrors.NewErrorHandler(logger),
		inflight:       customMiddleware.NewInFlight(),
		listener:       o.listener,
		shutdownCh:     o.shutdownCh,
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}
	app.createServer()

	return app, nil
}

// setupRouter builds the middleware chain and mounts the route groups.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → CORS → RateLimit,
// then InFlight → Availability → Timeout for the route groups only, so the
// health probes and /metrics answer while stores are down.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.errors))
	r.Use(customMiddleware.CORS(a.corsConfig()))
	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}

	r.NotFound(a.errors.NotFound)
	r.MethodNotAllowed(a.errors.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/health/ready", healthHandler.ReadinessCheck)
	r.Get("/version", healthHandler.Version)
	if a.OTelProviders.MetricsHandler != nil {
		r.Handle("/metrics", a.OTelProviders.MetricsHandler)
	}

	validator := customMiddleware.NewValidator()
	groups := []handlers.RouteGroup{
		handlers.NewShelterHandler(a.stores.Map, validator, a.errors, a.Logger),
		handlers.NewPathHandler(a.stores.Path, validator, a.errors, a.Logger),
		handlers.NewEmergencyHandler(a.stores.Emergency, validator, a.errors, a.Logger),
		handlers.NewTipsHandler(a.stores.Document, a.errors, a.Logger),
		handlers.NewMessageHandler(a.MessageService, a.WebSocketHub, validator, a.errors, a.Logger),
	}

	var err error
	r.Group(func(r chi.Router) {
		r.Use(a.inflight.Handler)
		r.Use(customMiddleware.Availability(a.Lifecycle.Ready))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(render.SetContentType(render.ContentTypeJSON))
		err = handlers.RegisterRoutes(r, groups...)
	})
	if err != nil {
		return err
	}

	a.Router = r
	return nil
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	c := a.Config.CORS
	return customMiddleware.CORSConfig{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Handler returns the root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.Router
}

// Addr returns the bound listen address, or "" before Start succeeds.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Start opens every store, starts the websocket hub and begins serving in
// the background. When a store fails to open no listener is bound and the
// error is returned; the stores that did open have been closed again.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.Lifecycle.Startup(ctx); err != nil {
		return fmt.Errorf("store startup failed: %w", err)
	}

	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.Server.Addr)
		if err != nil {
			shutdownErr := a.Lifecycle.Shutdown(context.WithoutCancel(ctx))
			return errors.Join(fmt.Errorf("listen on %s: %w", a.Server.Addr, err), shutdownErr)
		}
	}

	a.WebSocketHub.Start()

	done := make(chan struct{})
	a.mu.Lock()
	a.addr = ln.Addr().String()
	a.serveDone = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.mu.Lock()
			a.serveErr = err
			a.mu.Unlock()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests, disconnects websocket clients, closes the
// stores in reverse order and flushes telemetry. When draining outlasts the
// shutdown timeout the remaining connections are closed and Stop waits for
// their handlers to return before any store is closed. Every step runs even
// when an earlier one fails; the failures are returned joined. Later calls
// return the first call's result.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.Logger.InfoContext(ctx, "Shutting down application")

		var errs []error
		if err := a.drain(ctx); err != nil {
			errs = append(errs, err)
		}

		a.WebSocketHub.Stop()

		storeCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		if err := a.Lifecycle.Shutdown(storeCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()

		otelCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		if err := a.OTelProviders.Shutdown(otelCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		cancel()

		a.stopErr = errors.Join(errs...)
		a.Logger.InfoContext(ctx, "Application shutdown complete")
	})
	return a.stopErr
}

// drain stops the HTTP server and waits for route handlers to return.
func (a *Application) drain(ctx context.Context) error {
	timeout := a.Config.Server.ShutdownTimeout

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := a.Server.Shutdown(shutdownCtx)
	if err == nil {
		return nil
	}

	a.Logger.WarnContext(ctx, "Graceful drain timed out, closing connections",
		slog.Int("in_flight", a.inflight.Active()),
		slog.String("error", err.Error()))
	errs := []error{fmt.Errorf("server shutdown: %w", err)}
	if cerr := a.Server.Close(); cerr != nil {
		errs = append(errs, fmt.Errorf("server close: %w", cerr))
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, timeout)
	defer cancelWait()
	if werr := a.inflight.Wait(waitCtx); werr != nil {
		a.Logger.ErrorContext(ctx, "Handlers still running, closing stores under them",
			slog.Int("in_flight", a.inflight.Active()))
		errs = append(errs, fmt.Errorf("wait for in-flight requests: %w", werr))
	}
	return errors.Join(errs...)
}

// Run starts the application and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, the shutdown channel fires or the server fails, then
// stops it. A server failure is returned ahead of any shutdown error.
func (a *Application) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if err := a.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	serveDone := a.serveDone
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-serveDone:
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.serveErr != nil {
				return fmt.Errorf("http server: %w", a.serveErr)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.shutdownCh:
		case <-serveDone:
		}
		a.Logger.InfoContext(ctx, "Shutdown requested")
		return a.Stop(context.WithoutCancel(ctx))
	})
	return g.Wait()
}
