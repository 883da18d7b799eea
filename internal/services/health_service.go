package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"yeogiro/internal/lifecycle"
	"yeogiro/pkg/contracts"
)

// StoreStatusSource reports the state of the backing stores.
type StoreStatusSource interface {
	Ready() bool
	Status() []lifecycle.StoreStatus
}

// ClientCounter reports the number of connected websocket subscribers.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	stores    StoreStatusSource
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
	now       func() time.Time
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime,omitempty"`
}

// ReadinessStatus is the body of the readiness probe.
type ReadinessStatus struct {
	Status           string                  `json:"status"`
	Timestamp        time.Time               `json:"timestamp"`
	Stores           []lifecycle.StoreStatus `json:"stores"`
	WebSocketClients int                     `json:"websocket_clients"`
}

// NewHealthService creates a health service. clients may be nil.
func NewHealthService(version string, stores StoreStatusSource, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		stores:    stores,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
		now:       time.Now,
	}
}

// HealthCheck returns liveness with basic runtime figures. It never consults
// the stores.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: hs.now().UTC(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime_seconds": hs.now().Sub(hs.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports whether every store is Ready. The boolean mirrors
// Status == "ready".
func (hs *HealthService) ReadinessCheck(ctx context.Context) (ReadinessStatus, bool) {
	ready := hs.stores.Ready()
	status := ReadinessStatus{
		Status:    "ready",
		Timestamp: hs.now().UTC(),
		Stores:    hs.stores.Status(),
	}
	if status.Stores == nil {
		status.Stores = []lifecycle.StoreStatus{}
	}
	if hs.clients != nil {
		status.WebSocketClients = hs.clients.ClientCount()
	}
	if !ready {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("stores", status.Stores))
	}
	return status, ready
}

// Version returns build information.
func (hs *HealthService) Version() contracts.VersionInfo {
	info := contracts.GetVersionInfo()
	if hs.version != "" {
		info.Version = hs.version
	}
	return info
}
