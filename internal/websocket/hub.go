package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"arvaiapulse/internal/infrastructure"
)

// Message types pushed to dashboard clients
const (
	TypeConnection      = "connection"
	TypeDatasetReloaded = "dataset:reloaded"
)

const (
	broadcastBuffer  = 256
	clientSendBuffer = 256
)

// Message is the envelope of every server-sent event
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *OTelMetrics

	totalConnections int64

	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *OTelMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket_hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	select {
	case <-h.quit:
		// A stopped hub is not restarted.
		h.mu.Unlock()
		return
	default:
	}
	h.running = true
	h.mu.Unlock()

	h.logger.Info("websocket hub started")
	go h.Run()
}

// Run is the hub loop. Only this goroutine closes client send channels.
func (h *Hub) Run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.metrics.RecordConnection(ctx)
			h.logger.Info("websocket client connected",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			if msg, err := encode(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
				"message":   "Connected to Arvaia Pulse",
			}); err == nil {
				select {
				case client.send <- msg:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt))
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("websocket client disconnected",
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client is too slow; drop it rather than stall everyone else.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordDroppedMessage(ctx)
					h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt))
					h.logger.Warn("dropping slow websocket client",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt))
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates the hub loop, closing every client, and waits for it to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	wasRunning := h.running
	h.running = false
	h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.quit) })
	if wasRunning {
		<-h.done
		h.logger.Info("websocket hub stopped")
	}
}

// Register adds a client. It returns immediately once the hub is stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client. It returns immediately once the hub is stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends a typed event to every connected client
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg, err := encode(messageType, data)
	if err != nil {
		h.logger.Error("failed to marshal websocket message",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- msg:
	case <-h.quit:
	default:
		h.metrics.RecordDroppedMessage(context.Background())
		h.logger.Warn("websocket broadcast buffer full, message dropped",
			slog.String("type", messageType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections returns how many clients ever registered
func (h *Hub) TotalConnections() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConnections
}

func encode(messageType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
