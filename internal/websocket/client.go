package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"yeogiro/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send pings and close frames.
	maxMessageSize = 512

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API allows any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one websocket subscriber.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	region      string
	traceID     string
	remoteAddr  string
	connectedAt time.Time
	logger      *slog.Logger
}

// NewClient creates a client subscribed to region. An empty region receives
// every message.
func NewClient(hub *Hub, conn Connection, region, traceID string) *Client {
	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		region:      region,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: hub.logger.With(
			slog.String("client_id", id),
			slog.String("trace_id", traceID),
		),
	}
}

func (c *Client) subscribed(region string) bool {
	return c.region == "" || c.region == region
}

// ReadPump discards inbound frames and keeps the read deadline fresh. It
// unregisters the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump writes queued frames and pings. It sends a close frame once the
// hub closes the send channel.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// gorillaConn adapts *websocket.Conn to Connection.
type gorillaConn struct {
	*websocket.Conn
}

func (g gorillaConn) RemoteAddr() string {
	if addr := g.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// ServeWS upgrades the request and subscribes the connection to the region
// named by the "region" query parameter. The upgrader writes its own error
// response when the handshake fails.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(hub, gorillaConn{conn}, r.URL.Query().Get("region"), infrastructure.GetTraceID(r.Context()))
	if !hub.add(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"))
		_ = conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}
