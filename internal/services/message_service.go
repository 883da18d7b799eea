package services

import (
	"context"
	"log/slog"
	"strings"

	api "yeogiro/pkg/contracts/api/v1"
	"yeogiro/pkg/contracts/domain"
)

// MessageStore persists emergency messages.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	RecentMessages(ctx context.Context, region string, limit int) ([]domain.Message, error)
}

// Broadcaster delivers a stored message to live subscribers.
type Broadcaster interface {
	BroadcastMessage(ctx context.Context, msg domain.Message) error
}

// MessageService publishes and lists emergency messages.
type MessageService struct {
	store  MessageStore
	hub    Broadcaster
	logger *slog.Logger
}

// NewMessageService creates a message service. hub may be nil, in which case
// messages are only stored.
func NewMessageService(store MessageStore, hub Broadcaster, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		store:  store,
		hub:    hub,
		logger: logger.With(slog.String("service", "message")),
	}
}

// Publish stores the message and broadcasts the stored copy. A failed
// broadcast is logged and does not fail the publish: the message is durable
// and clients catch up through Recent.
func (s *MessageService) Publish(ctx context.Context, req api.PostMessageRequest) (domain.Message, error) {
	msg, err := s.store.InsertMessage(ctx, domain.Message{
		Region:   strings.TrimSpace(req.Region),
		Title:    req.Title,
		Body:     req.Body,
		Severity: req.Severity,
		Sender:   req.Sender,
	})
	if err != nil {
		return domain.Message{}, err
	}

	if s.hub != nil {
		if err := s.hub.BroadcastMessage(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "broadcast failed",
				slog.String("message_id", msg.ID),
				slog.String("region", msg.Region),
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "message published",
		slog.String("message_id", msg.ID),
		slog.String("region", msg.Region),
		slog.String("severity", msg.Severity))
	return msg, nil
}

// Recent lists the newest messages, optionally for one region.
func (s *MessageService) Recent(ctx context.Context, region string, limit int) ([]domain.Message, error) {
	return s.store.RecentMessages(ctx, strings.TrimSpace(region), limit)
}
