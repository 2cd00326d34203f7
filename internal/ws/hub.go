package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Hub fans detection events out to websocket clients. A client whose send
// buffer is full is disconnected rather than allowed to slow the others down.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws_hub"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

// Register returns false once the hub has stopped
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Debug("client connected",
		slog.String("client_id", client.id.String()),
		slog.Int("clients", len(h.clients)),
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

func (h *Hub) dispatch(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("type", string(event.Type)), slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("client too slow, disconnecting", slog.String("client_id", client.id.String()))
			h.dropLocked(client)
		}
	}
}

func (h *Hub) publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, event dropped", slog.String("type", string(event.Type)))
	}
}

// PublishFace is meant to be registered with Broadcaster.SubscribeFaces
func (h *Hub) PublishFace(ev domain.DetectionEvent) {
	h.publish(Event{
		Type:      EventFaceDetection,
		CameraID:  ev.CameraID,
		Data:      ev,
		Timestamp: stamp(ev.Timestamp),
	})
}

// PublishSafety is meant to be registered with Broadcaster.SubscribeSafety
func (h *Hub) PublishSafety(res domain.SafetyResult) {
	h.publish(Event{
		Type:      EventSafetyResult,
		CameraID:  res.CameraID,
		Data:      res,
		Timestamp: stamp(res.Timestamp),
	})
}

func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func stamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now()
	}
	return ts
}
