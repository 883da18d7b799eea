package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/middleware"
	api "yeogiro/pkg/contracts/api/v1"
)

// Query bounds of GET /emergency/facilities/nearby. Absent values are left
// to the store defaults.
const (
	MaxFacilityLimit = 100
	MaxRadiusMetres  = 50000
)

// EmergencyHandler serves the /emergency route group.
type EmergencyHandler struct {
	store     FacilityStore
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewEmergencyHandler creates the emergency route group.
func NewEmergencyHandler(store FacilityStore, v *middleware.Validator, eh *apierrors.ErrorHandler, logger *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		store:     store,
		validator: v,
		errors:    eh,
		logger:    logger.With(slog.String("handler", "emergency")),
	}
}

// Prefix implements RouteGroup.
func (h *EmergencyHandler) Prefix() string { return "/emergency" }

// Routes implements RouteGroup.
func (h *EmergencyHandler) Routes() chi.Router {
	r := newGroupRouter(h.errors)
	r.Route("/facilities", func(r chi.Router) {
		r.Get("/", h.errors.Wrap(h.List))
		r.Get("/nearby", h.errors.Wrap(h.Nearby))
		r.Get("/{id}", h.errors.Wrap(h.Get))
	})
	return r
}

// List handles GET /emergency/facilities?category=
func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) error {
	facilities, err := h.store.Facilities(r.Context(), categoryParam(r))
	if err != nil {
		return storeError(err, "facility")
	}
	render.JSON(w, r, api.NewListResponse(facilities))
	return nil
}

// Nearby handles GET /emergency/facilities/nearby?lat=&lng=&radius_m=&category=&limit=
func (h *EmergencyHandler) Nearby(w http.ResponseWriter, r *http.Request) error {
	p, err := h.validator.QueryPoint(r)
	if err != nil {
		return err
	}
	radius, err := middleware.QueryFloat(r, "radius_m", 0)
	if err != nil {
		return err
	}
	if radius > MaxRadiusMetres {
		return apierrors.BadRequest(fmt.Sprintf("radius_m must be at most %d", MaxRadiusMetres))
	}
	limit, err := middleware.QueryInt(r, "limit", 1, MaxFacilityLimit, 0)
	if err != nil {
		return err
	}

	facilities, err := h.store.NearbyFacilities(r.Context(), p, categoryParam(r), radius, limit)
	if err != nil {
		return storeError(err, "facility")
	}
	render.JSON(w, r, api.NewListResponse(facilities))
	return nil
}

// Get handles GET /emergency/facilities/{id}
func (h *EmergencyHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	facility, err := h.store.Facility(r.Context(), id)
	if err != nil {
		return storeError(err, "facility "+id)
	}
	render.JSON(w, r, facility)
	return nil
}

// categoryParam returns the normalized category filter, empty for none.
func categoryParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))
}
