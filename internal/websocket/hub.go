// Package websocket streams newly published emergency messages to
// subscribed websocket clients.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"yeogiro/internal/infrastructure"
	"yeogiro/pkg/contracts/domain"
	"yeogiro/pkg/contracts/events"
)

// ErrHubStopped is returned when broadcasting on a hub that is not running.
var ErrHubStopped = errors.New("websocket hub is not running")

// outbound is one frame queued for broadcast.
type outbound struct {
	region  string
	payload []byte
}

// Hub maintains the set of active clients and fans messages out to the
// ones subscribed to the message's region.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	logger  *slog.Logger
	metrics *infrastructure.Metrics

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	done    chan struct{}
	count   int
	countMu sync.RWMutex
}

// NewHub creates a stopped hub. A nil metrics skips recording.
func NewHub(logger *slog.Logger, metrics *infrastructure.Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. It is a no-op when already
// started; a stopped hub cannot be restarted.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	select {
	case <-h.quit:
		return
	default:
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and disconnects every client. It waits for the
// loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)
	h.mu.Unlock()

	<-h.done

	for c := range h.clients {
		h.drop(c)
	}
	h.logger.Info("websocket hub stopped")
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.metrics.RecordWebSocketClient(context.Background(), 1)

			h.logger.Info("client registered",
				slog.String("client_id", c.id),
				slog.String("region", c.region),
				slog.Int("total_clients", len(h.clients)))
			h.greet(c)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Info("client unregistered",
					slog.String("client_id", c.id),
					slog.Duration("connection_duration", time.Since(c.connectedAt)),
					slog.Int("total_clients", len(h.clients)))
			}

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// drop removes c and closes its send channel. Only the hub loop, or Stop
// after the loop has exited, may call it.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount(len(h.clients))
	h.metrics.RecordWebSocketClient(context.Background(), -1)
}

func (h *Hub) greet(c *Client) {
	frame := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
			TraceID:   c.traceID,
		},
		Region: c.region,
		Data:   map[string]string{"client_id": c.id, "status": "connected"},
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("client buffer full, connect frame dropped", slog.String("client_id", c.id))
	}
}

func (h *Hub) fanOut(msg outbound) {
	delivered, dropped := 0, 0
	for c := range h.clients {
		if !c.subscribed(msg.region) {
			continue
		}
		select {
		case c.send <- msg.payload:
			delivered++
		default:
			// Slow subscriber.
			dropped++
			h.drop(c)
			h.logger.Warn("client send buffer full, disconnecting", slog.String("client_id", c.id))
		}
	}

	h.metrics.RecordBroadcast(context.Background(), msg.region, int64(delivered))
	h.logger.Debug("message broadcast",
		slog.String("region", msg.region),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// BroadcastMessage queues msg for every client subscribed to its region.
func (h *Hub) BroadcastMessage(ctx context.Context, msg domain.Message) error {
	payload, err := json.Marshal(events.NewEmergencyFrame(msg, infrastructure.GetTraceID(ctx)))
	if err != nil {
		return fmt.Errorf("encode message frame: %w", err)
	}

	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		return ErrHubStopped
	}

	select {
	case h.broadcast <- outbound{region: msg.Region, payload: payload}:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) setCount(n int) {
	h.countMu.Lock()
	h.count = n
	h.countMu.Unlock()
}

// Subscribe serves a websocket subscription on the hub. See ServeWS.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	return ServeWS(h, w, r)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.countMu.RLock()
	defer h.countMu.RUnlock()
	return h.count
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		return false
	}
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
