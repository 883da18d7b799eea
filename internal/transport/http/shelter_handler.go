package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/middleware"
	api "yeogiro/pkg/contracts/api/v1"
)

// Bounds of the limit query parameter of GET /shelter.
const (
	DefaultShelterLimit = 10
	MaxShelterLimit     = 100
)

// ShelterHandler serves the /shelter route group.
type ShelterHandler struct {
	store     ShelterStore
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewShelterHandler creates the shelter route group.
func NewShelterHandler(store ShelterStore, v *middleware.Validator, eh *apierrors.ErrorHandler, logger *slog.Logger) *ShelterHandler {
	return &ShelterHandler{
		store:     store,
		validator: v,
		errors:    eh,
		logger:    logger.With(slog.String("handler", "shelter")),
	}
}

// Prefix implements RouteGroup.
func (h *ShelterHandler) Prefix() string { return "/shelter" }

// Routes implements RouteGroup.
func (h *ShelterHandler) Routes() chi.Router {
	r := newGroupRouter(h.errors)
	r.Get("/", h.errors.Wrap(h.Nearest))
	r.Get("/{id}", h.errors.Wrap(h.Get))
	return r
}

// Nearest handles GET /shelter?lat=&lng=&limit=
func (h *ShelterHandler) Nearest(w http.ResponseWriter, r *http.Request) error {
	p, err := h.validator.QueryPoint(r)
	if err != nil {
		return err
	}
	limit, err := middleware.QueryInt(r, "limit", 1, MaxShelterLimit, DefaultShelterLimit)
	if err != nil {
		return err
	}

	shelters, err := h.store.NearestShelters(r.Context(), p, limit)
	if err != nil {
		return storeError(err, "shelter")
	}
	render.JSON(w, r, api.NewListResponse(shelters))
	return nil
}

// Get handles GET /shelter/{id}
func (h *ShelterHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	shelter, err := h.store.Shelter(r.Context(), id)
	if err != nil {
		return storeError(err, "shelter "+id)
	}
	render.JSON(w, r, shelter)
	return nil
}
