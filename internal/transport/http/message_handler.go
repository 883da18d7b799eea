package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/middleware"
	api "yeogiro/pkg/contracts/api/v1"
)

// MaxMessageLimit bounds the limit query parameter of GET /message.
const MaxMessageLimit = 200

// MessageHandler serves the /message route group.
type MessageHandler struct {
	service    MessageService
	subscriber Subscriber
	validator  *middleware.Validator
	errors     *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewMessageHandler creates the message route group. subscriber may be nil,
// in which case /message/ws is not mounted.
func NewMessageHandler(service MessageService, subscriber Subscriber, v *middleware.Validator, eh *apierrors.ErrorHandler, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		service:    service,
		subscriber: subscriber,
		validator:  v,
		errors:     eh,
		logger:     logger.With(slog.String("handler", "message")),
	}
}

// Prefix implements RouteGroup.
func (h *MessageHandler) Prefix() string { return "/message" }

// Routes implements RouteGroup.
func (h *MessageHandler) Routes() chi.Router {
	r := newGroupRouter(h.errors)
	r.Get("/", h.errors.Wrap(h.List))
	r.Post("/", h.errors.Wrap(h.Post))
	if h.subscriber != nil {
		r.Get("/ws", h.Stream)
	}
	return r
}

// List handles GET /message?region=&limit=
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) error {
	limit, err := middleware.QueryInt(r, "limit", 1, MaxMessageLimit, 0)
	if err != nil {
		return err
	}
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	msgs, err := h.service.Recent(r.Context(), region, limit)
	if err != nil {
		return storeError(err, "message")
	}
	render.JSON(w, r, api.NewListResponse(msgs))
	return nil
}

// Post handles POST /message
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) error {
	var req api.PostMessageRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		return err
	}

	msg, err := h.service.Publish(r.Context(), req)
	if err != nil {
		return storeError(err, "message")
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, msg)
	return nil
}

// Stream handles GET /message/ws?region=. A failed upgrade has already been
// answered by the upgrader, so the error is only logged.
func (h *MessageHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if err := h.subscriber.Subscribe(w, r); err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
	}
}
