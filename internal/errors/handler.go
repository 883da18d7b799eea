package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// InternalErrorMessage is the only detail a client sees for an unclassified failure.
const InternalErrorMessage = "Internal Server Error"

// HandlerFunc is an http handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler is the single boundary that turns handler errors into
// envelope responses.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// Wrap adapts fn to http.HandlerFunc, routing any returned error through HandleError.
func (h *ErrorHandler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.HandleError(w, r, err)
		}
	}
}

// HandleError writes the envelope for err. A *StatusError keeps its status
// and message, a deadline becomes 504, anything else is answered by the
// catch-all with 500 and a generic message.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var se *StatusError
	switch {
	case errors.As(err, &se):
	case errors.Is(err, context.DeadlineExceeded):
		se = WithCause(http.StatusGatewayTimeout, "request timed out", err)
	default:
		h.handleUnexpected(w, r, err)
		return
	}

	level := slog.LevelWarn
	if se.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request rejected",
		slog.Int("status", se.StatusCode),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	WriteError(w, r, se)
}

func (h *ErrorHandler) handleUnexpected(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "unhandled error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	WriteError(w, r, New(http.StatusInternalServerError, InternalErrorMessage))
}

// HandlePanic answers a recovered panic with the catch-all 500 envelope.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.String("panic", fmt.Sprint(recovered)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)
	WriteError(w, r, New(http.StatusInternalServerError, InternalErrorMessage))
}

// NotFound answers requests matching no route.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, NotFound("Not Found"))
}

// MethodNotAllowed answers requests whose path exists under another method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, New(http.StatusMethodNotAllowed, "Method Not Allowed"))
}
