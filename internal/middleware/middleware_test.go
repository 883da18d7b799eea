package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/infrastructure"
	"yeogiro/internal/shared/testutil"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apierrors.Envelope {
	t.Helper()
	var env apierrors.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	var seen, traced string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
		traced = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, traced)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", seen)
	assert.Equal(t, "client-supplied", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	cors := CORS(CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"*"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.NotFound("nope"))
	})

	tests := []struct {
		name       string
		handler    http.Handler
		method     string
		preflight  bool
		wantStatus int
	}{
		{"success", okHandler, http.MethodGet, false, http.StatusOK},
		{"error", failing, http.MethodGet, false, http.StatusNotFound},
		{"preflight", failing, http.MethodOptions, true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/shelter", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			cors(tt.handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			if tt.preflight {
				assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := Recoverer(apierrors.NewErrorHandler(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tips", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apierrors.EnvelopeStatus, env.Status)
	assert.Equal(t, apierrors.InternalErrorMessage, env.Data.Msg)
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestRecovererReraisesAbort(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := Recoverer(apierrors.NewErrorHandler(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewRateLimiter(0.001, 2, logger).Handler(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Equal(t, http.StatusTooManyRequests, decodeEnvelope(t, rec).Data.StatusCode)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, logs.ContainsMessage("rate limit exceeded"))
}

func TestAvailability(t *testing.T) {
	ready := false
	h := Availability(func() bool { return ready })(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shelter", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, decodeEnvelope(t, rec).Data.StatusCode)

	ready = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shelter", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInFlight(t *testing.T) {
	inflight := NewInFlight()
	require.NoError(t, inflight.Wait(context.Background()), "idle tracker returns at once")

	entered := make(chan struct{})
	release := make(chan struct{})
	h := inflight.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/shelter", nil))
	}()
	<-entered
	assert.Equal(t, 1, inflight.Active())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, inflight.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, inflight.Wait(context.Background()))
	<-done
	assert.Equal(t, 0, inflight.Active())

	// the tracker is reusable once idle
	inflight.Handler(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/shelter", nil))
	assert.Equal(t, 0, inflight.Active())
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	h := Timeout(time.Minute)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	upgrade := httptest.NewRequest(http.MethodGet, "/message/ws", nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), upgrade)
	assert.False(t, hasDeadline)

	var disabled bool
	Timeout(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, disabled = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, disabled)
}

func TestTimeoutBecomes504(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger)
	h := Timeout(time.Millisecond)(eh.Wrap(func(_ http.ResponseWriter, r *http.Request) error {
		<-r.Context().Done()
		return r.Context().Err()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "request timed out", decodeEnvelope(t, rec).Data.Msg)
}

func TestStructuredLogger(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	r.Use(RequestID, StructuredLogger(logger))
	r.Get("/tips", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tips", nil))
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "request completed")
	assert.True(t, logs.ContainsAttr("status", int64(http.StatusTeapot)))
	assert.True(t, logs.ContainsAttr("path", "/tips"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	testutil.AssertLogContains(t, logs, slog.LevelError, "request completed")
}
