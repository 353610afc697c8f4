// Package hub provides the websocket observer registry and state broadcast
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/teslashibe/go-rover/internal/log"
)

// Hub maintains the set of connected observers and fans vehicle-state
// snapshots out to them. Delivery is best-effort, at-most-once per
// broadcast; an observer that cannot keep up is pruned, never waited on.
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Inbound snapshots to broadcast
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex guarding clients and the cached snapshot
	mu sync.RWMutex

	// Last broadcast snapshot, replayed to new clients as initial sync
	last []byte

	// Optional live snapshot source, preferred over the cached broadcast
	// so a fresh observer gets current state even before any mutation
	snapshot func() any
}

// New creates a new Hub.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetSnapshot wires a live state source used to answer initial sync for
// newly connected observers.
func (h *Hub) SetSnapshot(fn func() any) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

// syncPayload returns the snapshot pushed to a newly connected observer:
// the live source when one is wired, else the last broadcast. May be nil
// on a fresh hub with no source.
func (h *Hub) syncPayload() []byte {
	h.mu.RLock()
	fn := h.snapshot
	last := h.last
	h.mu.RUnlock()

	if fn != nil {
		data, err := json.Marshal(fn())
		if err == nil {
			return data
		}
		log.Error("initial sync snapshot failed to encode", "hub", h.name, "error", err)
	}
	return last
}

// Run starts the hub's main loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			// Initial sync: a fresh observer gets the current snapshot
			// immediately, not on the next mutation.
			if data := h.syncPayload(); data != nil {
				client.trySend(data)
			}
			log.Info("observer connected", "hub", h.name, "id", client.ID, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("observer disconnected", "hub", h.name, "id", client.ID, "remaining", count)

		case snapshot := <-h.broadcast:
			h.sweep(snapshot)
		}
	}
}

// sweep delivers one snapshot to every client. Failed clients are collected
// during the sweep and removed after it completes, so every observer that
// was healthy at sweep start still receives this snapshot.
func (h *Hub) sweep(snapshot []byte) {
	h.mu.Lock()
	h.last = snapshot

	var failed []*Client
	for client := range h.clients {
		if !client.trySend(snapshot) {
			failed = append(failed, client)
		}
	}
	for _, client := range failed {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	for _, client := range failed {
		log.Warn("pruned unresponsive observer", "hub", h.name, "id", client.ID)
	}
}

// BroadcastJSON encodes v and queues it for fan-out to all observers.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn("broadcast queue full, dropping snapshot", "hub", h.name)
	}
	return nil
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
