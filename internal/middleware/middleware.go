package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/infrastructure"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID takes the request id from the X-Request-ID header or generates a
// UUID, echoes it on the response and stores it where chi's GetReqID and the
// logger's trace handler find it. It should be the first middleware.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, requestID)
		ctx = infrastructure.WithTraceID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger logs one line per completed request.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Recoverer turns a panic into the 500 envelope. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recoverer(errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				errorHandler.HandlePanic(w, r, rvr)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig is the cross-origin policy written on every response.
// Browsers refuse credentialed requests when the origin is "*" even with
// AllowCredentials set; origins are sent as configured, not echoed.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS writes the configured policy headers on every response, before the
// handler runs, so errors carry them too. Preflight requests are answered
// with 204 and never reach the router.
func CORS(cfg CORSConfig) func(next http.Handler) http.Handler {
	origins := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origins)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter is a process-wide token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Handler rejects requests over the limit with the 429 envelope.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Retry-After", "1")
			apierrors.WriteError(w, r, apierrors.TooManyRequests("Too Many Requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Availability answers 503 while ready reports false, so no handler touches
// a store that is not open.
func Availability(ready func() bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ready() {
				apierrors.WriteError(w, r, apierrors.ServiceUnavailable("Service Unavailable"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InFlight counts requests that are still inside the wrapped handler so
// shutdown can wait for them before closing the stores.
type InFlight struct {
	mu     sync.Mutex
	active int
	idle   chan struct{}
}

// NewInFlight returns an idle tracker.
func NewInFlight() *InFlight {
	return &InFlight{}
}

// Handler tracks every request passing through next.
func (f *InFlight) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.enter()
		defer f.leave()
		next.ServeHTTP(w, r)
	})
}

func (f *InFlight) enter() {
	f.mu.Lock()
	if f.active == 0 {
		f.idle = make(chan struct{})
	}
	f.active++
	f.mu.Unlock()
}

func (f *InFlight) leave() {
	f.mu.Lock()
	f.active--
	if f.active == 0 {
		close(f.idle)
	}
	f.mu.Unlock()
}

// Active returns the number of requests currently inside the handler.
func (f *InFlight) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Wait blocks until no request is active or ctx is done.
func (f *InFlight) Wait(ctx context.Context) error {
	f.mu.Lock()
	if f.active == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Timeout puts a deadline on the request context. Handlers observe it
// through their store calls; the resulting context.DeadlineExceeded becomes
// a 504 envelope. Websocket upgrades are long-lived and left alone.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
