package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"yeogiro/internal/config"
)

// InstrumentationName identifies tracers and meters created by this module.
const InstrumentationName = "yeogiro"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry backs MetricsHandler. Each provider set owns its own registry
	// so several applications can live in one process.
	Registry       *prom.Registry
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to cfg. Disabled
// signals fall back to no-op implementations so callers never nil-check.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.TracingEnabled),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled))

	res := createResource(cfg)

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:  metricnoop.NewMeterProvider().Meter(InstrumentationName),
		Logger: logger,
	}

	if cfg.TracingEnabled {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.MetricsEnabled {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", fmt.Sprintf("%s-%d", hostname, time.Now().Unix())),
	)
}

func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter

	switch cfg.TracingExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = exp
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TracingExporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TracingExporter))
	return nil
}

func initializeMetrics(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("opentelemetry shutdown: %w", err)
	}
	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// Metrics holds the instruments recorded by the HTTP layer, the stores and
// the message hub.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	StoreTransitionDuration metric.Float64Histogram
	StoreReady              metric.Int64UpDownCounter

	MessagesBroadcast metric.Int64Counter
	WebSocketClients  metric.Int64UpDownCounter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.StoreTransitionDuration, err = meter.Float64Histogram(
		"store_transition_duration_seconds",
		metric.WithDescription("Time spent opening or closing a backing store"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.StoreReady, err = meter.Int64UpDownCounter(
		"store_ready",
		metric.WithDescription("1 while a backing store is ready to serve"),
	); err != nil {
		return nil, err
	}
	if m.MessagesBroadcast, err = meter.Int64Counter(
		"messages_broadcast_total",
		metric.WithDescription("Emergency messages pushed to websocket subscribers"),
	); err != nil {
		return nil, err
	}
	if m.WebSocketClients, err = meter.Int64UpDownCounter(
		"websocket_clients",
		metric.WithDescription("Connected websocket subscribers"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordStoreTransition records how long a store took to open or close.
func (m *Metrics) RecordStoreTransition(ctx context.Context, store, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.StoreTransitionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("store", store),
		attribute.String("op", op),
		attribute.String("result", result),
	))
}

// RecordStoreReady moves the ready gauge of store by delta.
func (m *Metrics) RecordStoreReady(ctx context.Context, store string, delta int64) {
	if m == nil {
		return
	}
	m.StoreReady.Add(ctx, delta, metric.WithAttributes(attribute.String("store", store)))
}

// RecordWebSocketClient moves the connected-subscriber gauge by delta.
func (m *Metrics) RecordWebSocketClient(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}

// RecordBroadcast counts messages delivered to subscribers of region.
func (m *Metrics) RecordBroadcast(ctx context.Context, region string, delivered int64) {
	if m == nil {
		return
	}
	m.MessagesBroadcast.Add(ctx, delivered, metric.WithAttributes(attribute.String("region", region)))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
