package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// TagSource delivers invalidated cache tags.
type TagSource interface {
	Listen(ctx context.Context, fn func(tag string)) error
}

// Hub fans invalidated tags out to event-stream subscribers.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan string]struct{}
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewHub returns a Hub with no subscribers.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[chan string]struct{}), keepAlive: 25 * time.Second, logger: logger}
}

// Subscribe registers a buffered subscriber channel.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish sends tag to every subscriber. Slow subscribers miss it.
func (h *Hub) Publish(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- tag:
		default:
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Attach forwards every tag from src into the hub until ctx is done.
func (h *Hub) Attach(ctx context.Context, src TagSource) error {
	return src.Listen(ctx, h.Publish)
}

// ServeSSE streams tags as "invalidate" events.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case tag, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: invalidate\ndata: %s\n\n", tag)
			flusher.Flush()
		}
	}
}
