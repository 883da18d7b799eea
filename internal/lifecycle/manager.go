// Package lifecycle opens the backing stores before the server accepts
// traffic and closes them after it stops.
//
// Stores are opened in the fixed order map, document, path, emergency,
// regardless of the order they were registered in. Any open failure is
// fatal: the stores already opened are closed again in reverse order and
// the manager stays failed. Shutdown closes every registered store exactly
// once in reverse order, continues past failures, and then writes the
// shutdown banner.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"yeogiro/internal/store"
)

// Sentinel errors returned by Manager.
var (
	ErrStartupFailed  = errors.New("store startup failed")
	ErrDuplicateStore = errors.New("store kind already registered")
	ErrUnknownKind    = errors.New("unknown store kind")
	ErrMissingStore   = errors.New("store kind not registered")
	ErrAlreadyStarted = errors.New("lifecycle manager already started")
	ErrShutdown       = errors.New("lifecycle manager shut down")
)

// Recorder receives store timing and readiness. *infrastructure.Metrics
// implements it.
type Recorder interface {
	RecordStoreTransition(ctx context.Context, store, op string, d time.Duration, err error)
	RecordStoreReady(ctx context.Context, store string, delta int64)
}

// Option configures a Manager.
type Option func(*Manager)

// WithStartupTimeout bounds the whole startup sequence. Zero means no bound
// beyond the caller's context.
func WithStartupTimeout(d time.Duration) Option {
	return func(m *Manager) { m.startupTimeout = d }
}

// WithBanner redirects the shutdown banner. A nil writer suppresses it.
func WithBanner(w io.Writer) Option {
	return func(m *Manager) { m.banner = w }
}

// WithRecorder attaches store metrics.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// StoreStatus is a snapshot of one registered store.
type StoreStatus struct {
	Kind  store.Kind  `json:"store"`
	State store.State `json:"state"`
}

// Manager owns the startup and shutdown of the backing stores.
type Manager struct {
	logger         *slog.Logger
	startupTimeout time.Duration
	banner         io.Writer
	recorder       Recorder

	mu       sync.Mutex
	handles  []store.Handle // sorted by kind rank
	closed   map[store.Kind]bool
	started  bool
	startErr error
	stopped  bool

	ready atomic.Bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Manager with no stores registered.
func New(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger: logger.With(slog.String("component", "lifecycle")),
		banner: os.Stdout,
		closed: make(map[store.Kind]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds stores to be managed. It must be called before Startup.
func (m *Manager) Register(handles ...store.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.stopped {
		return ErrAlreadyStarted
	}
	for _, h := range handles {
		kind := h.Kind()
		if kind.Rank() < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}
		if slices.ContainsFunc(m.handles, func(existing store.Handle) bool { return existing.Kind() == kind }) {
			return fmt.Errorf("%w: %s", ErrDuplicateStore, kind)
		}
		m.handles = append(m.handles, h)
	}
	slices.SortStableFunc(m.handles, func(a, b store.Handle) int {
		return a.Kind().Rank() - b.Kind().Rank()
	})
	return nil
}

// Startup opens every store in rank order. It runs once: later calls return
// the first call's result, so a failed manager stays failed.
func (m *Manager) Startup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrShutdown
	}
	if m.started {
		return m.startErr
	}
	m.started = true
	m.startErr = m.startup(ctx)
	return m.startErr
}

func (m *Manager) startup(ctx context.Context) error {
	for _, kind := range store.Kinds() {
		if !slices.ContainsFunc(m.handles, func(h store.Handle) bool { return h.Kind() == kind }) {
			return fmt.Errorf("%w: %w: %s", ErrStartupFailed, ErrMissingStore, kind)
		}
	}

	if m.startupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.startupTimeout)
		defer cancel()
	}

	m.logger.InfoContext(ctx, "starting stores", slog.Any("order", m.order()))

	for i, h := range m.handles {
		kind := h.Kind()

		err := ctx.Err()
		if err == nil {
			start := time.Now()
			err = h.Open(ctx)
			m.record(ctx, kind, "open", time.Since(start), err)
		}
		if err != nil {
			m.logger.ErrorContext(ctx, "store failed to open",
				slog.String("store", kind.String()),
				slog.String("error", err.Error()))
			m.rollback(ctx, m.handles[:i+1])
			return fmt.Errorf("%w: %s store: %w", ErrStartupFailed, kind, err)
		}

		if m.recorder != nil {
			m.recorder.RecordStoreReady(ctx, kind.String(), 1)
		}
		m.logger.InfoContext(ctx, "store ready", slog.String("store", kind.String()))
	}

	m.ready.Store(true)
	m.logger.InfoContext(ctx, "all stores ready")
	return nil
}

// rollback closes attempted in reverse order after a failed startup. The
// failing store is last in attempted and closed first.
func (m *Manager) rollback(ctx context.Context, attempted []store.Handle) {
	ctx = context.WithoutCancel(ctx)
	for i := len(attempted) - 1; i >= 0; i-- {
		if err := m.closeHandle(ctx, attempted[i]); err != nil {
			m.logger.WarnContext(ctx, "store close failed during startup rollback",
				slog.String("store", attempted[i].Kind().String()),
				slog.String("error", err.Error()))
		}
	}
}

// Shutdown closes every registered store in reverse rank order. Failures are
// logged and returned joined; they never stop the remaining closes. The
// banner is written after the last store. Later calls return the first
// call's result without closing anything again.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.mu.Lock()
		m.ready.Store(false)
		m.stopped = true
		handles := slices.Clone(m.handles)
		m.mu.Unlock()

		m.logger.InfoContext(ctx, "stopping stores")

		var errs []error
		for i := len(handles) - 1; i >= 0; i-- {
			h := handles[i]
			if err := m.closeHandle(ctx, h); err != nil {
				m.logger.ErrorContext(ctx, "store failed to close",
					slog.String("store", h.Kind().String()),
					slog.String("error", err.Error()))
				errs = append(errs, fmt.Errorf("close %s store: %w", h.Kind(), err))
			}
		}
		m.shutdownErr = errors.Join(errs...)

		if m.banner != nil {
			_, _ = io.WriteString(m.banner, ShutdownBanner)
		}
		m.logger.InfoContext(ctx, "Graceful shutdown completed", slog.Int("close_errors", len(errs)))
	})
	return m.shutdownErr
}

// closeHandle closes h unless the manager already did.
func (m *Manager) closeHandle(ctx context.Context, h store.Handle) error {
	kind := h.Kind()
	if m.closed[kind] {
		return nil
	}
	m.closed[kind] = true

	wasReady := h.State() == store.Ready
	start := time.Now()
	err := h.Close(ctx)
	m.record(ctx, kind, "close", time.Since(start), err)
	if wasReady && m.recorder != nil {
		m.recorder.RecordStoreReady(ctx, kind.String(), -1)
	}
	return err
}

func (m *Manager) record(ctx context.Context, kind store.Kind, op string, d time.Duration, err error) {
	if m.recorder != nil {
		m.recorder.RecordStoreTransition(ctx, kind.String(), op, d, err)
	}
}

// Ready reports whether every store opened and shutdown has not begun.
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

// Order returns the registered kinds in startup order.
func (m *Manager) Order() []store.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order()
}

func (m *Manager) order() []store.Kind {
	kinds := make([]store.Kind, len(m.handles))
	for i, h := range m.handles {
		kinds[i] = h.Kind()
	}
	return kinds
}

// Lookup returns the registered store of kind.
func (m *Manager) Lookup(kind store.Kind) (store.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.handles {
		if h.Kind() == kind {
			return h, true
		}
	}
	return nil, false
}

// Status reports the state of every registered store in startup order.
func (m *Manager) Status() []StoreStatus {
	m.mu.Lock()
	handles := slices.Clone(m.handles)
	m.mu.Unlock()

	statuses := make([]StoreStatus, len(handles))
	for i, h := range handles {
		statuses[i] = StoreStatus{Kind: h.Kind(), State: h.State()}
	}
	return statuses
}
