package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthReporter
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthReporter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /health/ready. Until every store is Ready it
// answers with the 503 envelope.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status, ready := h.service.ReadinessCheck(r.Context())
	if !ready {
		apierrors.WriteError(w, r, apierrors.ServiceUnavailable("stores not ready"))
		return
	}
	render.JSON(w, r, status)
}

// Version handles GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
