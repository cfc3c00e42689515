package notifications

import (
	"context"
	"errors"
	"sync"

	"blackdonut/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName = "engagement"

	maxConnsPerPartner = 8
	maxTotalConns      = 5000
)

var (
	ErrPartnerConnLimit = errors.New("partner connection limit reached")
	ErrServerConnLimit  = errors.New("server connection limit reached")
)

// Hub maps partner ids to their open WebSocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for partnerID.
func (h *Hub) Register(partnerID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[partnerID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[partnerID] = m
	}
	if len(m) >= maxConnsPerPartner {
		return nil, ErrPartnerConnLimit
	}

	client := newClient(h, conn, partnerID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.PartnerID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.PartnerID)
	}
}

// Deliver sends payload to every connection of partnerID.
func (h *Hub) Deliver(partnerID uint, payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := []byte(payload)
	for c := range h.conns[partnerID] {
		c.TrySend(data)
	}
}

// ConnectionCount returns the number of open connections for partnerID.
func (h *Hub) ConnectionCount(partnerID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[partnerID])
}

// StartWiring forwards every partner event published through n to local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPartnerSubscriber(ctx, h.Deliver)
}

// Shutdown closes every client's send channel, which makes WritePump send a
// close frame and exit.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
