package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	WRITE_WAIT       = 10 * time.Second
	PONG_WAIT        = 60 * time.Second
	PING_PERIOD      = (PONG_WAIT * 9) / 10
	MAX_MESSAGE_SIZE = 512
	SEND_BUFFER_SIZE = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard origin is enforced at the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans advisor events out to every open dashboard connection of that
// advisor. Connections are push-only; inbound frames are read solely to
// notice the peer going away.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[int64]map[*connection]struct{})}
}

type connection struct {
	hub       *Hub
	advisorID int64
	ws        *websocket.Conn
	send      chan []byte
}

// ServeWS upgrades the request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, advisorID int64) error {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[Hub] Upgrade failed",
			slog.Int64("advisor_id", advisorID),
			slog.String("error", err.Error()))
		return err
	}

	conn := &connection{
		hub:       h,
		advisorID: advisorID,
		ws:        socket,
		send:      make(chan []byte, SEND_BUFFER_SIZE),
	}
	h.register(conn)

	go conn.writePump()
	go conn.readPump()
	return nil
}

// BroadcastToAdvisor sends one event to every connection of an advisor.
// Connections too slow to drain their buffer are dropped.
func (h *Hub) BroadcastToAdvisor(advisorID int64, event models.AdvisorEvent) {
	event.AdvisorID = advisorID
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("[Hub] Failed to marshal event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.connections[advisorID]))
	for conn := range h.connections[advisorID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.send <- payload:
		default:
			slog.Warn("[Hub] Dropping slow connection",
				slog.Int64("advisor_id", advisorID))
			h.unregister(conn)
		}
	}
}

// ConnectionCount reports the open connections for one advisor.
func (h *Hub) ConnectionCount(advisorID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[advisorID])
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	if h.connections[c.advisorID] == nil {
		h.connections[c.advisorID] = make(map[*connection]struct{})
	}
	h.connections[c.advisorID][c] = struct{}{}
	count := len(h.connections[c.advisorID])
	h.mu.Unlock()

	slog.Info("[Hub] Advisor connected",
		slog.Int64("advisor_id", c.advisorID),
		slog.Int("connections", count))
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	conns, tracked := h.connections[c.advisorID]
	if tracked {
		if _, present := conns[c]; present {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.connections, c.advisorID)
			}
		} else {
			tracked = false
		}
	}
	count := len(h.connections[c.advisorID])
	h.mu.Unlock()

	if tracked {
		slog.Info("[Hub] Advisor disconnected",
			slog.Int64("advisor_id", c.advisorID),
			slog.Int("connections", count))
	}
}

func (c *connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(MAX_MESSAGE_SIZE)
	c.ws.SetReadDeadline(time.Now().Add(PONG_WAIT))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(PONG_WAIT))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("[Hub] Unexpected close",
					slog.Int64("advisor_id", c.advisorID),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(PING_PERIOD)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, open := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if !open {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
