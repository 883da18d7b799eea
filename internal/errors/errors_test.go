package errors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, body io.Reader) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		wantCode int
	}{
		{"client error", 404, 404},
		{"lowest valid", 100, 100},
		{"highest valid", 599, 599},
		{"below range", 99, 500},
		{"above range", 600, 500},
		{"zero", 0, 500},
		{"negative", -1, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "msg")
			assert.Equal(t, tt.wantCode, err.StatusCode)
			assert.Equal(t, "msg", err.Message)
		})
	}
}

func TestStatusError_Unwrap(t *testing.T) {
	cause := errors.New("no rows")
	err := WithCause(http.StatusNotFound, "shelter not found", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no rows")
	assert.Equal(t, "404 Bad things", New(404, "Bad things").Error())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     *StatusError
		accept  string
		wantMsg string
	}{
		{"not found", NotFound("Item not found"), "", "Item not found"},
		{"bad request", BadRequest("lat is required"), "", "lat is required"},
		{"unavailable", ServiceUnavailable("stores are starting"), "", "stores are starting"},
		{"xml accept still gets json", TooManyRequests("slow down"), "application/xml", "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()

			WriteError(rec, req, tt.err)

			assert.Equal(t, tt.err.StatusCode, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			env := decodeEnvelope(t, rec.Body)
			assert.Equal(t, EnvelopeStatus, env.Status)
			assert.Equal(t, tt.wantMsg, env.Data.Msg)
			assert.Equal(t, tt.err.StatusCode, env.Data.StatusCode)
		})
	}
}

func TestEnvelope_WireFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), NotFound("Item not found"))

	assert.JSONEq(t, `{"status":4000,"data":{"msg":"Item not found","status_code":404}}`, rec.Body.String())
}
