// Package events contains the frames pushed to websocket subscribers.
package events

import (
	"time"

	"yeogiro/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeEmergency carries a newly published emergency message.
	MessageTypeEmergency MessageType = "message:new"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Region string `json:"region,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// NewEmergencyFrame wraps msg for broadcast.
func NewEmergencyFrame(msg domain.Message, traceID string) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			ID:        msg.ID,
			Type:      MessageTypeEmergency,
			Timestamp: msg.CreatedAt,
			TraceID:   traceID,
		},
		Region: msg.Region,
		Data:   msg,
	}
}
