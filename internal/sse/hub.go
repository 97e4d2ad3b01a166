package sse

import "sync"

// Hub is a registry of open notification channels for one resource type
// (orders or inventory). It is owned by the server process and passed to
// whatever needs to fan out updates; there is no package-level state.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

// Register opens a new client channel. The caller must Unregister it when
// the underlying connection closes.
func (h *Hub) Register() chan []byte {
	ch := make(chan []byte, 4)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unregister(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// Broadcast pushes a snapshot to every open channel. Sends never block: a
// client that cannot keep up misses the frame and is repaired by its own
// periodic refresh tick.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
