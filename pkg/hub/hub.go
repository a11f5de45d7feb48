package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Stats counts hub traffic.
type Stats struct {
	Clients   int    `json:"clients"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
	Evicted   uint64 `json:"evicted"`
	Connected uint64 `json:"connected"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name string
	log  *slog.Logger

	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	running atomic.Bool

	sent      atomic.Uint64
	dropped   atomic.Uint64
	evicted   atomic.Uint64
	connected atomic.Uint64
}

// New creates a new Hub. A nil logger uses slog.Default.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		log:        logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Name returns the hub name.
func (h *Hub) Name() string {
	return h.name
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client's send queue. A hub is not restarted after Run returns.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.stopOnce.Do(func() { close(h.done) })
			h.log.Debug("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.connected.Add(1)
			h.log.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent.Add(1)
				default:
					// too slow to keep up
					close(client.send)
					delete(h.clients, client)
					h.evicted.Add(1)
					h.log.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.log.Debug("broadcast queue full, dropping message", "type", msg.Type)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("hub %s: encode: %w", h.name, err)
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., depth atlas images)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats returns a snapshot of the hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients:   h.ClientCount(),
		Sent:      h.sent.Load(),
		Dropped:   h.dropped.Load(),
		Evicted:   h.evicted.Load(),
		Connected: h.connected.Load(),
	}
}
