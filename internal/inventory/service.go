package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/infrastructure/cache"
	"github.com/example/inventory-dashboard/internal/infrastructure/store"
	"github.com/example/inventory-dashboard/internal/sse"
)

const (
	cacheTTL    = 3600 * time.Second
	cachePrefix = "inventory:"
)

// Item is the external inventory shape; the derived flag is exposed as
// "availability".
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Quantity     int    `json:"quantity"`
	Availability bool   `json:"availability"`
}

// Filter mirrors the listing query parameters.
type Filter struct {
	Category  string
	Available *bool
	Name      string
}

// Service handles inventory reads and direct quantity adjustments.
type Service struct {
	store store.Interface
	cache cache.Interface
	hub   *sse.Hub
}

func NewService(st store.Interface, c cache.Interface, hub *sse.Hub) *Service {
	return &Service{store: st, cache: c, hub: hub}
}

// List returns the filtered inventory, name ascending, memoized per filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Item, error) {
	key := cacheKey(filter)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[Inventory] Cache read failed for %s: %v", key, err)
	} else if ok {
		var items []Item
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		log.Printf("[Inventory] Dropping corrupt cache entry %s", key)
	}

	records, err := s.store.ListItems(ctx, store.ItemFilter{
		Category:  filter.Category,
		Available: filter.Available,
		Name:      filter.Name,
	})
	if err != nil {
		return nil, err
	}

	items := formatItems(records)
	if data, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
			log.Printf("[Inventory] Cache write failed for %s: %v", key, err)
		}
	}
	return items, nil
}

// SetQuantity sets an item's stock level and recomputes availability.
func (s *Service) SetQuantity(ctx context.Context, id string, quantity int) (*Item, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be a non-negative number", domain.ErrInvalidArgument)
	}

	updated, err := s.store.SetItemQuantity(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}

	// Any cached inventory query might be affected by a single item change.
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		log.Printf("[Inventory] Cache invalidation failed: %v", err)
	}
	s.BroadcastSnapshot(ctx)

	item := formatItem(*updated)
	return &item, nil
}

// Snapshot returns the full listing as a JSON payload for SSE clients.
func (s *Service) Snapshot(ctx context.Context) ([]byte, error) {
	records, err := s.store.ListItems(ctx, store.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(formatItems(records))
}

// BroadcastSnapshot pushes a fresh full listing to every open inventory
// channel. Best-effort: a failed snapshot is logged, not propagated.
func (s *Service) BroadcastSnapshot(ctx context.Context) {
	data, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("[Inventory] Snapshot for broadcast failed: %v", err)
		return
	}
	s.hub.Broadcast(data)
}

func cacheKey(filter Filter) string {
	available := ""
	if filter.Available != nil {
		available = strconv.FormatBool(*filter.Available)
	}
	return fmt.Sprintf("%s%s:%s:%s", cachePrefix, filter.Category, available, filter.Name)
}

func formatItems(records []domain.InventoryItem) []Item {
	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, formatItem(record))
	}
	return items
}

func formatItem(record domain.InventoryItem) Item {
	return Item{
		ID:           record.ID,
		Name:         record.Name,
		Category:     record.Category,
		Quantity:     record.Quantity,
		Availability: record.Available,
	}
}
