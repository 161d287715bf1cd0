// Package network pushes rendered frames to browser viewers over WebSockets
// and serves the host page and read-only JSON endpoints.
package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MRamiBalles/sinewave/internal/platform/config"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
	"github.com/MRamiBalles/sinewave/internal/view"
)

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	last       []byte // the most recent frame fanned out, owned by Run
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector

	sendBuffer int
	maxClients int
}

// NewHub initializes a new WebSocket Hub.
func NewHub(cfg *config.Config, log *logger.Logger, m *metrics.Collector) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, cfg.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    m,
		sendBuffer: cfg.ClientSendBuffer,
		maxClients: cfg.MaxClients,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return nil
		case client := <-h.register:
			h.greet(client)
			h.mu.Lock()
			if len(h.clients) >= h.maxClients {
				close(client.send)
				h.logger.Warn("Viewer limit reached, refusing WebSocket client")
			} else {
				h.clients[client] = true
				h.metrics.RecordWSConnection(1)
				h.logger.Info("New WebSocket client connected")
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.last = message
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Too slow to keep up with the animation.
					h.drop(client)
					h.metrics.RecordWSError()
					h.logger.Warn("Dropped slow WebSocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// greet queues the first frame for a joining client. Taking it from the same
// loop that fans out broadcasts means the viewer continues from exactly the
// frame it was shown. Before the first broadcast the snapshot stands in.
func (h *Hub) greet(client *Client) {
	payload := h.last
	if payload == nil && client.snap != nil {
		var err error
		if payload, err = json.Marshal(client.snap.Snapshot()); err != nil {
			h.logger.Error("Failed to serialize snapshot for new client: " + err.Error())
			return
		}
	}
	if payload == nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// drop removes a client. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.metrics.RecordWSConnection(-1)
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish serializes a frame and queues it for every client. It never blocks
// the caller: when the broadcast queue is full the frame is dropped.
func (h *Hub) Publish(frame view.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to serialize frame for WebSocket broadcast: " + err.Error())
		return
	}

	select {
	case h.broadcast <- payload:
		h.metrics.RecordFrame(false)
	default:
		h.metrics.RecordFrame(true)
		h.logger.Warn("Broadcast queue full, frame dropped")
	}
}

// join hands a client to Run. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to Run for removal.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
