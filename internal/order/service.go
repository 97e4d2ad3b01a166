package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/infrastructure/cache"
	"github.com/example/inventory-dashboard/internal/infrastructure/store"
	"github.com/example/inventory-dashboard/internal/sse"
)

const (
	cacheTTL             = 3600 * time.Second
	ordersCachePrefix    = "orders:"
	inventoryCachePrefix = "inventory:"

	// DefaultPageSize is the listing page size when the client sends none.
	DefaultPageSize = 5
	snapshotSize    = 5
)

// CustomerInput identifies the buyer at order creation; resolved or created
// by email.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ItemInput is a requested line, referencing the inventory item by name.
type ItemInput struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Line is an order line in external responses.
type Line struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Order is the external order shape.
type Order struct {
	ID        string             `json:"orderId"`
	Customer  CustomerInput      `json:"customer"`
	Items     []Line             `json:"items"`
	Status    domain.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Filter narrows order listings.
type Filter struct {
	Status     string
	Start      *time.Time
	End        *time.Time
	SearchTerm string
}

// Page is a paginated listing response.
type Page struct {
	Orders      []Order `json:"orders"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
	TotalCount  int     `json:"totalCount"`
}

// InventoryBroadcaster pushes a fresh inventory snapshot to SSE clients
// after a transition that touched stock.
type InventoryBroadcaster interface {
	BroadcastSnapshot(ctx context.Context)
}

// Service is the order lifecycle engine. It enforces legal status
// transitions and keeps inventory quantities consistent with the net effect
// of all non-terminal orders: stock is decremented exactly once, at
// pending -> paid, and any terminal transition that follows paid reverses
// that single decrement exactly once.
type Service struct {
	store     store.Interface
	cache     cache.Interface
	hub       *sse.Hub
	inventory InventoryBroadcaster
	publisher EventPublisher
}

func NewService(st store.Interface, c cache.Interface, hub *sse.Hub, inv InventoryBroadcaster, pub EventPublisher) *Service {
	return &Service{store: st, cache: c, hub: hub, inventory: inv, publisher: pub}
}

// Create resolves the customer by email, validates stock, and records the
// order as pending. Stock is validated but not decremented here.
func (s *Service) Create(ctx context.Context, customer CustomerInput, items []ItemInput) (*Order, error) {
	if customer.Email == "" {
		return nil, fmt.Errorf("%w: customer email is required", domain.ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", domain.ErrInvalidArgument)
	}

	inputs := make([]store.OrderItemInput, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", domain.ErrInvalidArgument, item.Product)
		}
		record, err := s.store.GetItemByName(ctx, item.Product)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrNotFound, item.Product)
		}
		if record.Quantity < item.Quantity {
			return nil, fmt.Errorf("%w: not enough stock available for %s, max available: %d",
				domain.ErrInsufficientStock, item.Product, record.Quantity)
		}
		inputs = append(inputs, store.OrderItemInput{
			InventoryItemID: record.ID,
			Quantity:        item.Quantity,
		})
	}

	resolved, err := s.store.UpsertCustomer(ctx, customer.Name, customer.Email)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateOrder(ctx, resolved.ID, inputs)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ordersCachePrefix)
	s.broadcastOrders(ctx)
	s.publish(ctx, EventOrderCreated, created)

	formatted := format(*created)
	return &formatted, nil
}

// ConfirmPayment moves a pending order to paid and decrements each item's
// stock by the ordered quantity in one transaction. Payment details are a
// pass-through acknowledgement, not a ledger.
func (s *Service) ConfirmPayment(ctx context.Context, id string) (*Order, error) {
	existing, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: order is not pending", domain.ErrInvalidState)
	}

	updated, err := s.store.TransitionOrder(ctx, id, domain.StatusPaid, -1)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, inventoryCachePrefix)
	s.invalidate(ctx, ordersCachePrefix)
	s.inventory.BroadcastSnapshot(ctx)
	s.broadcastOrders(ctx)
	s.publish(ctx, EventOrderPaid, updated)

	formatted := format(*updated)
	return &formatted, nil
}

// Cancel moves an order to cancelled. Stock is restored only when the prior
// status was not pending, because pending orders never decremented it.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	existing, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case domain.StatusCancelled:
		return nil, fmt.Errorf("%w: order is already cancelled", domain.ErrInvalidState)
	case domain.StatusRefunded:
		return nil, fmt.Errorf("%w: order is already refunded", domain.ErrInvalidState)
	}

	stockDelta := 0
	if existing.Status != domain.StatusPending {
		stockDelta = 1
	}

	updated, err := s.store.TransitionOrder(ctx, id, domain.StatusCancelled, stockDelta)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ordersCachePrefix)
	s.broadcastOrders(ctx)
	if stockDelta != 0 {
		s.invalidate(ctx, inventoryCachePrefix)
		s.inventory.BroadcastSnapshot(ctx)
	}
	s.publish(ctx, EventOrderCancelled, updated)

	formatted := format(*updated)
	return &formatted, nil
}

// Refund moves a paid order to refunded and always restores stock, since a
// paid order always previously decremented it.
func (s *Service) Refund(ctx context.Context, id string) (*Order, error) {
	existing, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != domain.StatusPaid {
		return nil, fmt.Errorf("%w: order has not been paid", domain.ErrInvalidState)
	}

	updated, err := s.store.TransitionOrder(ctx, id, domain.StatusRefunded, 1)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ordersCachePrefix)
	s.invalidate(ctx, inventoryCachePrefix)
	s.broadcastOrders(ctx)
	s.inventory.BroadcastSnapshot(ctx)
	s.publish(ctx, EventOrderRefunded, updated)

	formatted := format(*updated)
	return &formatted, nil
}

// List returns a page of orders, memoized per filter and page.
func (s *Service) List(ctx context.Context, filter Filter, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	key := cacheKey(filter, page, limit)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[Order] Cache read failed for %s: %v", key, err)
	} else if ok {
		var cached Page
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		log.Printf("[Order] Dropping corrupt cache entry %s", key)
	}

	storeFilter := store.OrderFilter{
		Status:     filter.Status,
		Start:      filter.Start,
		End:        filter.End,
		SearchTerm: filter.SearchTerm,
	}
	if filter.SearchTerm != "" {
		if _, err := uuid.Parse(filter.SearchTerm); err == nil {
			storeFilter.SearchID = filter.SearchTerm
		}
	}

	records, total, err := s.store.ListOrders(ctx, storeFilter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Orders:      formatAll(records),
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalCount:  total,
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
			log.Printf("[Order] Cache write failed for %s: %v", key, err)
		}
	}
	return result, nil
}

// Snapshot returns the most recent orders as a single-page JSON payload for
// SSE clients.
func (s *Service) Snapshot(ctx context.Context) ([]byte, error) {
	records, err := s.store.RecentOrders(ctx, snapshotSize)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Page{
		Orders:      formatAll(records),
		CurrentPage: 1,
		TotalPages:  1,
		TotalCount:  len(records),
	})
}

func (s *Service) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	existing, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	return existing, nil
}

func (s *Service) invalidate(ctx context.Context, prefix string) {
	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		log.Printf("[Order] Cache invalidation for %s failed: %v", prefix, err)
	}
}

func (s *Service) broadcastOrders(ctx context.Context) {
	data, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("[Order] Snapshot for broadcast failed: %v", err)
		return
	}
	s.hub.Broadcast(data)
}

// publish sends a lifecycle event to Kafka, best-effort. A publish failure
// never fails the request.
func (s *Service) publish(ctx context.Context, eventType string, record *domain.Order) {
	if s.publisher == nil {
		return
	}
	event := Event{
		Type:          eventType,
		OrderID:       record.ID,
		CustomerName:  record.Customer.Name,
		CustomerEmail: record.Customer.Email,
		Status:        record.Status,
		Items:         formatLines(record.Items),
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, record.ID, event); err != nil {
		log.Printf("[Order] Failed to publish %s for order %s: %v", eventType, record.ID, err)
	}
}

func cacheKey(filter Filter, page, limit int) string {
	start, end := "", ""
	if filter.Start != nil {
		start = filter.Start.UTC().Format(time.RFC3339)
	}
	if filter.End != nil {
		end = filter.End.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%d:%d",
		ordersCachePrefix, filter.Status, start, end, filter.SearchTerm, page, limit)
}

func format(record domain.Order) Order {
	return Order{
		ID:        record.ID,
		Customer:  CustomerInput{Name: record.Customer.Name, Email: record.Customer.Email},
		Items:     formatLines(record.Items),
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
	}
}

func formatAll(records []domain.Order) []Order {
	orders := make([]Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, format(record))
	}
	return orders
}

func formatLines(items []domain.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{Product: item.Product, Quantity: item.Quantity})
	}
	return lines
}
