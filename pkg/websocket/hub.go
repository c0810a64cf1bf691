package websocket

import (
	"context"
	"sync"

	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

// Hub maintains the set of connected console clients and broadcasts messages
type Hub struct {
	clients map[string]*Client

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *Message

	// greeting, when set, is sent to every client right after it registers
	greeting func() *Message

	log *zap.Logger
	mu  sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *Message, 256),
		log:        logger.Named("websocket"),
	}
}

// SetGreeting installs the message sent to newly connected clients.
func (h *Hub) SetGreeting(fn func() *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeting = fn
}

// Run starts the hub's main loop until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("websocket hub stopped")
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case msg := <-h.Broadcast:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	greeting := h.greeting
	h.mu.Unlock()

	h.log.Debug("client registered", zap.String("client_id", client.ID), zap.String("user_id", client.UserID))

	if greeting != nil {
		if msg := greeting(); msg != nil {
			h.deliver(client, msg)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.log.Debug("client unregistered", zap.String("client_id", client.ID))
	}
}

func (h *Hub) broadcast(msg *Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.deliver(client, msg)
	}
}

// deliver drops slow clients instead of blocking the hub.
func (h *Hub) deliver(client *Client, msg *Message) {
	select {
	case client.Send <- msg:
	default:
		h.log.Warn("client buffer full, disconnecting", zap.String("client_id", client.ID))
		h.unregisterClient(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// SendToAll broadcasts a message to all connected clients
func (h *Hub) SendToAll(msg *Message) {
	h.Broadcast <- msg
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
