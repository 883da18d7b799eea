package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/middleware"
	api "yeogiro/pkg/contracts/api/v1"
	"yeogiro/pkg/contracts/domain"
)

// PathHandler serves the /path route group.
type PathHandler struct {
	store     PathStore
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewPathHandler creates the path route group.
func NewPathHandler(store PathStore, v *middleware.Validator, eh *apierrors.ErrorHandler, logger *slog.Logger) *PathHandler {
	return &PathHandler{
		store:     store,
		validator: v,
		errors:    eh,
		logger:    logger.With(slog.String("handler", "path")),
	}
}

// Prefix implements RouteGroup.
func (h *PathHandler) Prefix() string { return "/path" }

// Routes implements RouteGroup.
func (h *PathHandler) Routes() chi.Router {
	r := newGroupRouter(h.errors)
	r.Post("/find", h.errors.Wrap(h.Find))
	r.Post("/", h.errors.Wrap(h.Save))
	r.Get("/{id}", h.errors.Wrap(h.Get))
	return r
}

// Find handles POST /path/find. A zero tolerance selects the store default.
func (h *PathHandler) Find(w http.ResponseWriter, r *http.Request) error {
	var req api.FindPathRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		return err
	}

	path, err := h.store.FindPath(r.Context(), req.Origin, req.Destination, req.ToleranceMetres)
	if err != nil {
		return storeError(err, "cached path")
	}
	render.JSON(w, r, path)
	return nil
}

// Save handles POST /path
func (h *PathHandler) Save(w http.ResponseWriter, r *http.Request) error {
	var req api.SavePathRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		return err
	}

	path, err := h.store.SavePath(r.Context(), domain.Path{
		Origin:          req.Origin,
		Destination:     req.Destination,
		Waypoints:       req.Waypoints,
		DistanceMetres:  req.DistanceMetres,
		DurationSeconds: req.DurationSeconds,
		Source:          req.Source,
	})
	if err != nil {
		return storeError(err, "path")
	}

	h.logger.InfoContext(r.Context(), "path cached",
		slog.String("path_id", path.ID),
		slog.Int("waypoints", len(path.Waypoints)),
		slog.Float64("distance_m", path.DistanceMetres))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, path)
	return nil
}

// Get handles GET /path/{id}
func (h *PathHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	path, err := h.store.Path(r.Context(), id)
	if err != nil {
		return storeError(err, "path "+id)
	}
	render.JSON(w, r, path)
	return nil
}
