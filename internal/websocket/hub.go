package websocket

import (
	"sync"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

// Hub is the registry of live connections, keyed by connection id. Fan
// out to rooms goes through NATS; the hub only carries direct,
// one-to-one traffic: call acks, private-message copies, and
// per-sender read notifications.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Connection
	logger  logger.Logger
}

func NewHub(logg logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Connection),
		logger:  logg,
	}
}

// Register adds a connection to the registry.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn.ID] = conn
}

// Unregister removes a connection and closes its send channel. Safe to
// call for an id that was already removed.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, exists := h.clients[connID]; exists {
		delete(h.clients, connID)
		close(conn.Send)
	}
}

// Connected reports whether the connection id has a live connection.
func (h *Hub) Connected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[connID]
	return exists
}

// SendTo queues a frame for one specific connection. A missing or
// backed-up connection drops the frame; fan-out already queued to other
// connections is never affected by one failed delivery.
//
// The read lock is held across the send attempt: Unregister and Close
// close the channel under the write lock, so releasing early would open
// a send-on-closed-channel window. The select never blocks, so the lock
// is held only briefly.
func (h *Hub) SendTo(connID string, frame domain.Frame) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, exists := h.clients[connID]
	if !exists {
		return false
	}
	select {
	case conn.Send <- frame:
		return true
	default:
		h.logger.Warnf("send buffer full for %s, dropping %s", connID, frame.Event)
		return false
	}
}

// Close tears down every connection. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		close(conn.Send)
		conn.Ws.Close()
		delete(h.clients, id)
	}
}
