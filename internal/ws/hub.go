// Package ws bridges storefront websocket connections to conversation
// sessions: JSON text frames carry control traffic and transcript updates,
// binary frames carry audio in both directions.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The endpoint is already JWT-gated; the storefront origin varies
		// per deployment.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Session is what the bridge needs from a conversation, satisfied by
// orchestrator.Orchestrator.
type Session interface {
	StartConversation(ctx context.Context) error
	EndConversation()
	Close()
	Send(ctx context.Context, text string) error
	Confirm(ctx context.Context, messageID string) error
	Dismiss(messageID string)
	Interrupt()
	AppendAudio(pcm []byte)
	Status() entities.Status
	Messages() []entities.Message
}

// SessionFactory builds a conversation session wired to the given observer.
// Each connected client gets its own session.
type SessionFactory func(obs orchestrator.Observer) Session

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	sessions SessionFactory
	logger   *zap.Logger
}

// NewHub creates a websocket hub.
func NewHub(sessions SessionFactory, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.clientID]; ok && old != client {
				// A reconnect supersedes the previous connection.
				old.session.Close()
				close(old.send)
			}
			h.clients[client.clientID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.clientID]; ok && cur == client {
				delete(h.clients, client.clientID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.clientID))
		}
	}
}

// ActiveClients returns the IDs of currently connected clients.
func (h *Hub) ActiveClients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Serve upgrades an authenticated request and runs the client's pumps. The
// clientID comes from the validated session token.
func (h *Hub) Serve(c echo.Context, clientID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan WriteData, 256),
		clientID: clientID,
		logger:   h.logger,
	}
	client.session = h.sessions(client)
	client.touch()

	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// endIdleSessions ends live conversations on clients with no inbound traffic
// for longer than maxIdle. The websocket stays open; only the paid realtime
// session is released.
func (h *Hub) endIdleSessions(maxIdle time.Duration) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ended := 0
	for _, client := range h.clients {
		if client.session.Status() == entities.StatusIdle {
			continue
		}
		if time.Since(client.idleSince()) <= maxIdle {
			continue
		}
		h.logger.Info("Ending idle conversation",
			zap.String("clientID", client.clientID),
			zap.Time("lastActive", client.idleSince()))
		client.session.EndConversation()
		ended++
	}
	return ended
}
