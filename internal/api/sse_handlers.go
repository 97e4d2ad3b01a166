package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/example/inventory-dashboard/internal/inventory"
	"github.com/example/inventory-dashboard/internal/order"
	"github.com/example/inventory-dashboard/internal/sse"
)

// refreshInterval is the timer-driven resend period per client; it bounds
// staleness even when a write-triggered push is missed.
const refreshInterval = 5 * time.Second

// SSEHandlers serves the order and inventory event streams.
type SSEHandlers struct {
	orderHub     *sse.Hub
	inventoryHub *sse.Hub
	orders       *order.Service
	inventory    *inventory.Service
}

func NewSSEHandlers(orderHub, inventoryHub *sse.Hub, orderSvc *order.Service, inventorySvc *inventory.Service) *SSEHandlers {
	return &SSEHandlers{
		orderHub:     orderHub,
		inventoryHub: inventoryHub,
		orders:       orderSvc,
		inventory:    inventorySvc,
	}
}

func (h *SSEHandlers) Orders(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.orderHub, h.orders.Snapshot)
}

func (h *SSEHandlers) Inventory(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.inventoryHub, h.inventory.Snapshot)
}

// stream holds the connection open, sending the current snapshot
// immediately, on every broadcast, and on a fixed timer. The client channel
// and its timer are released exactly when the connection closes.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, hub *sse.Hub, snapshot func(context.Context) ([]byte, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondMessage(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(data []byte) {
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	if data, err := snapshot(r.Context()); err != nil {
		log.Printf("[SSE] Initial snapshot failed: %v", err)
	} else {
		send(data)
	}

	ch := hub.Register()
	defer hub.Unregister(ch)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			send(data)
		case <-ticker.C:
			data, err := snapshot(r.Context())
			if err != nil {
				log.Printf("[SSE] Periodic snapshot failed: %v", err)
				continue
			}
			send(data)
		}
	}
}
