package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
	api "yeogiro/pkg/contracts/api/v1"
)

// TipsHandler serves the /tips route group.
type TipsHandler struct {
	store  TipStore
	errors *apierrors.ErrorHandler
	logger *slog.Logger
}

// NewTipsHandler creates the tips route group.
func NewTipsHandler(store TipStore, eh *apierrors.ErrorHandler, logger *slog.Logger) *TipsHandler {
	return &TipsHandler{
		store:  store,
		errors: eh,
		logger: logger.With(slog.String("handler", "tips")),
	}
}

// Prefix implements RouteGroup.
func (h *TipsHandler) Prefix() string { return "/tips" }

// Routes implements RouteGroup.
func (h *TipsHandler) Routes() chi.Router {
	r := newGroupRouter(h.errors)
	r.Get("/", h.errors.Wrap(h.List))
	r.Get("/{id}", h.errors.Wrap(h.Get))
	return r
}

// List handles GET /tips?category=
func (h *TipsHandler) List(w http.ResponseWriter, r *http.Request) error {
	tips, err := h.store.Tips(r.Context(), categoryParam(r))
	if err != nil {
		return storeError(err, "tip")
	}
	render.JSON(w, r, api.NewListResponse(tips))
	return nil
}

// Get handles GET /tips/{id}
func (h *TipsHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	tip, err := h.store.Tip(r.Context(), id)
	if err != nil {
		return storeError(err, "tip "+id)
	}
	render.JSON(w, r, tip)
	return nil
}
