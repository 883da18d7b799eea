package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/store"
)

// ErrInvalidPrefix is returned by RegisterRoutes for an empty, malformed or
// duplicated group prefix.
var ErrInvalidPrefix = errors.New("invalid route group prefix")

// RouteGroup is a set of routes mounted under one path prefix.
type RouteGroup interface {
	Prefix() string
	Routes() chi.Router
}

// RegisterRoutes mounts every group on r. Prefixes must start with "/", be
// longer than "/" and be unique; nothing is mounted when one is not.
func RegisterRoutes(r chi.Router, groups ...RouteGroup) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		prefix := strings.TrimRight(g.Prefix(), "/")
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, g.Prefix())
		}
		if _, dup := seen[prefix]; dup {
			return fmt.Errorf("%w: %q registered twice", ErrInvalidPrefix, prefix)
		}
		seen[prefix] = struct{}{}
	}

	for _, g := range groups {
		r.Mount(strings.TrimRight(g.Prefix(), "/"), g.Routes())
	}
	return nil
}

// storeError maps store sentinels onto HTTP statuses. what names the entity
// in the 404 message.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apierrors.WithCause(http.StatusNotFound, what+" not found", err)
	case errors.Is(err, store.ErrNotReady), errors.Is(err, store.ErrClosed):
		return apierrors.WithCause(http.StatusServiceUnavailable, "Service Unavailable", err)
	default:
		return err
	}
}

// newGroupRouter returns a sub-router answering unmatched requests with the
// error envelope.
func newGroupRouter(eh *apierrors.ErrorHandler) chi.Router {
	r := chi.NewRouter()
	r.NotFound(eh.NotFound)
	r.MethodNotAllowed(eh.MethodNotAllowed)
	return r
}
