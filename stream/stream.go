// Package stream pushes render history events to browsers over server-sent
// events so the index page updates without polling.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxClients caps concurrent SSE connections.
	DefaultMaxClients = 256
	// ClientBuffer is the per-client queue length. A full queue drops events.
	ClientBuffer = 32
	// KeepAliveInterval is the period of comment lines sent to idle clients.
	KeepAliveInterval = 30 * time.Second
)

// Event types.
const (
	RenderCreated = "render.created"
	RenderDeleted = "render.deleted"
)

// Event describes a change to the render history.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Hub fans events out to connected clients. The zero value is not usable; use
// NewHub.
type Hub struct {
	maxClients int

	mu      sync.Mutex
	clients map[chan Event]struct{}
	closed  bool
	done    chan struct{}

	published int64
	dropped   int64
	rejected  int64
}

// NewHub returns a hub accepting up to maxClients connections. maxClients <= 0
// selects DefaultMaxClients.
func NewHub(maxClients int) *Hub {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	return &Hub{
		maxClients: maxClients,
		clients:    make(map[chan Event]struct{}),
		done:       make(chan struct{}),
	}
}

// Subscribe registers a client. It returns false when the hub is full or
// closed.
func (h *Hub) Subscribe() (chan Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.clients) >= h.maxClients {
		atomic.AddInt64(&h.rejected, 1)
		return nil, false
	}
	c := make(chan Event, ClientBuffer)
	h.clients[c] = struct{}{}
	return c, true
}

// Unsubscribe removes c and closes it. Unknown channels are ignored.
func (h *Hub) Unsubscribe(c chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c)
	}
}

// Publish delivers ev to every client without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	atomic.AddInt64(&h.published, 1)
	for c := range h.clients {
		select {
		case c <- ev:
		default:
			atomic.AddInt64(&h.dropped, 1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stats reports connection counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active_connections":   h.Clients(),
		"max_connections":      h.maxClients,
		"published_events":     atomic.LoadInt64(&h.published),
		"dropped_events":       atomic.LoadInt64(&h.dropped),
		"rejected_connections": atomic.LoadInt64(&h.rejected),
	}
}

// Close disconnects every client. Further publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for c := range h.clients {
		delete(h.clients, c)
		close(c)
	}
	log.Println("Stream hub closed")
}

// ServeHTTP streams events to one client until it disconnects or the hub
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	c, ok := h.Subscribe()
	if !ok {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}
	defer h.Unsubscribe(c)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("Content-Encoding")

	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case ev, ok := <-c:
			if !ok {
				return
			}
			msg, err := formatEvent(ev)
			if err != nil {
				log.Printf("Error encoding stream event: %v", err)
				continue
			}
			if _, err := io.WriteString(w, msg); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func formatEvent(ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data), nil
}
