// Package http implements the yeogiro HTTP API.
//
// Handlers are grouped into route groups (shelter, path, emergency, tips and
// message), each mounted under its own prefix by RegisterRoutes. Handlers
// stay thin: they parse and validate input, call a store through a small
// consumer-side interface and render the result with go-chi/render.
//
// Failures are returned, not written. apierrors.ErrorHandler.Wrap turns a
// returned error into the error envelope:
//
//	{"status": 4000, "data": {"msg": "shelter s-1 not found", "status_code": 404}}
//
// Store sentinels map to statuses in one place (storeError): store.ErrNotFound
// becomes 404, store.ErrNotReady and store.ErrClosed become 503. Anything
// unclassified is answered by the catch-all 500.
package http
