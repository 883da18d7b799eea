package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// EnvelopeStatus is the constant application code carried by every error envelope.
const EnvelopeStatus = 4000

// StatusError is an explicit rejection raised by a handler: the request is
// refused with StatusCode and a client-facing Message.
type StatusError struct {
	StatusCode int
	Message    string
	cause      error
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.cause)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StatusError) Unwrap() error {
	return e.cause
}

// New creates a StatusError. Codes outside the HTTP range [100, 599] are
// replaced by 500.
func New(statusCode int, message string) *StatusError {
	if statusCode < 100 || statusCode > 599 {
		statusCode = http.StatusInternalServerError
	}
	return &StatusError{StatusCode: statusCode, Message: message}
}

// WithCause creates a StatusError that keeps err for logging while the client
// only sees message.
func WithCause(statusCode int, message string, err error) *StatusError {
	se := New(statusCode, message)
	se.cause = err
	return se
}

// BadRequest rejects malformed input.
func BadRequest(message string) *StatusError {
	return New(http.StatusBadRequest, message)
}

// NotFound rejects a lookup with no result.
func NotFound(message string) *StatusError {
	return New(http.StatusNotFound, message)
}

// ServiceUnavailable rejects requests the backing stores cannot serve.
func ServiceUnavailable(message string) *StatusError {
	return New(http.StatusServiceUnavailable, message)
}

// TooManyRequests rejects a request over the rate limit.
func TooManyRequests(message string) *StatusError {
	return New(http.StatusTooManyRequests, message)
}

// Envelope is the JSON body of every error response:
//
//	{"status": 4000, "data": {"msg": "...", "status_code": 404}}
type Envelope struct {
	Status int          `json:"status"`
	Data   EnvelopeData `json:"data"`
}

// EnvelopeData carries the rejection message and its HTTP status.
type EnvelopeData struct {
	Msg        string `json:"msg"`
	StatusCode int    `json:"status_code"`
}

// NewEnvelope builds the envelope of e.
func NewEnvelope(e *StatusError) *Envelope {
	return &Envelope{
		Status: EnvelopeStatus,
		Data: EnvelopeData{
			Msg:        e.Message,
			StatusCode: e.StatusCode,
		},
	}
}

// WriteError writes the envelope of e as a JSON response with status
// e.StatusCode, regardless of the request's Accept header.
func WriteError(w http.ResponseWriter, r *http.Request, e *StatusError) {
	render.Status(r, e.StatusCode)
	render.JSON(w, r, NewEnvelope(e))
}
