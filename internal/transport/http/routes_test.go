package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/store"
)

type stubGroup struct {
	prefix string
}

func (g stubGroup) Prefix() string { return g.prefix }

func (g stubGroup) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(g.prefix))
	})
	return r
}

func TestRegisterRoutes_AllGroupsReachable(t *testing.T) {
	prefixes := []string{"/shelter", "/path", "/emergency", "/tips", "/message"}
	groups := make([]RouteGroup, 0, len(prefixes))
	for _, p := range prefixes {
		groups = append(groups, stubGroup{prefix: p})
	}
	h := newRouter(t, groups...)

	for _, p := range prefixes {
		rec := do(t, h, http.MethodGet, p+"/", "")
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, p, rec.Body.String())
	}
}

func TestRegisterRoutes_InvalidPrefix(t *testing.T) {
	tests := []struct {
		name   string
		groups []RouteGroup
	}{
		{"empty", []RouteGroup{stubGroup{prefix: ""}}},
		{"root", []RouteGroup{stubGroup{prefix: "/"}}},
		{"relative", []RouteGroup{stubGroup{prefix: "shelter"}}},
		{"duplicate", []RouteGroup{stubGroup{prefix: "/tips"}, stubGroup{prefix: "/tips/"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(chi.NewRouter(), tt.groups...)
			assert.ErrorIs(t, err, ErrInvalidPrefix)
		})
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound, "shelter s-9 not found"},
		{"wrapped not found", errors.Join(errors.New("lookup"), store.ErrNotFound), http.StatusNotFound, "shelter s-9 not found"},
		{"not ready", store.ErrNotReady, http.StatusServiceUnavailable, "Service Unavailable"},
		{"closed", store.ErrClosed, http.StatusServiceUnavailable, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var se *apierrors.StatusError
			require.ErrorAs(t, storeError(tt.err, "shelter s-9"), &se)
			assert.Equal(t, tt.wantStatus, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
		})
	}

	assert.NoError(t, storeError(nil, "x"))
	other := errors.New("disk on fire")
	assert.Same(t, other, storeError(other, "x"))
}
