package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/infrastructure/store"
)

// TransitionCall records parameters passed to TransitionOrder.
type TransitionCall struct {
	OrderID    string
	Status     domain.OrderStatus
	StockDelta int
}

// MockStore is an in-memory implementation of store.Interface for testing.
type MockStore struct {
	mu        sync.Mutex
	items     map[string]*domain.InventoryItem
	customers map[string]*domain.Customer // keyed by email
	orders    map[string]*domain.Order
	users     map[string]*domain.User // keyed by email

	// For tracking calls in tests
	ListItemsCalls  int
	ListOrdersCalls int
	TransitionCalls []TransitionCall
}

func NewMockStore() *MockStore {
	return &MockStore{
		items:     make(map[string]*domain.InventoryItem),
		customers: make(map[string]*domain.Customer),
		orders:    make(map[string]*domain.Order),
		users:     make(map[string]*domain.User),
	}
}

// SeedItem adds an inventory item directly.
func (m *MockStore) SeedItem(item domain.InventoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Available = item.Quantity > 0
	m.items[item.ID] = &item
}

// SeedOrder adds an order directly.
func (m *MockStore) SeedOrder(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	m.orders[order.ID] = &order
}

// Item returns a copy of the stored item for assertions.
func (m *MockStore) Item(id string) domain.InventoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

func (m *MockStore) CreateItem(_ context.Context, name, category string, quantity int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &domain.InventoryItem{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  category,
		Quantity:  quantity,
		Available: quantity > 0,
		CreatedAt: time.Now(),
	}
	m.items[item.ID] = item
	copied := *item
	return &copied, nil
}

func (m *MockStore) ListItems(_ context.Context, filter store.ItemFilter) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListItemsCalls++

	items := []domain.InventoryItem{}
	for _, item := range m.items {
		if filter.Category != "" && !containsFold(item.Category, filter.Category) {
			continue
		}
		if filter.Available != nil && item.Available != *filter.Available {
			continue
		}
		if filter.Name != "" && !containsFold(item.Name, filter.Name) {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *MockStore) GetItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *MockStore) GetItemByName(_ context.Context, name string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockStore) SetItemQuantity(_ context.Context, id string, quantity int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	item.Quantity = quantity
	item.Available = quantity > 0
	copied := *item
	return &copied, nil
}

func (m *MockStore) UpsertCustomer(_ context.Context, name, email string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[email]; ok {
		copied := *c
		return &copied, nil
	}
	c := &domain.Customer{ID: uuid.New().String(), Name: name, Email: email, CreatedAt: time.Now()}
	m.customers[email] = c
	copied := *c
	return &copied, nil
}

func (m *MockStore) CreateOrder(_ context.Context, customerID string, items []store.OrderItemInput) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var customer domain.Customer
	for _, c := range m.customers {
		if c.ID == customerID {
			customer = *c
		}
	}

	order := &domain.Order{
		ID:        uuid.New().String(),
		Customer:  customer,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
	for _, input := range items {
		item := m.items[input.InventoryItemID]
		order.Items = append(order.Items, domain.OrderItem{
			InventoryItemID: input.InventoryItemID,
			Product:         item.Name,
			Category:        item.Category,
			Quantity:        input.Quantity,
		})
	}
	m.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (m *MockStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *MockStore) ListOrders(_ context.Context, filter store.OrderFilter, limit, offset int) ([]domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListOrdersCalls++

	matched := []domain.Order{}
	for _, o := range m.orders {
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		if filter.Start != nil && filter.End != nil {
			if o.CreatedAt.Before(*filter.Start) || o.CreatedAt.After(*filter.End) {
				continue
			}
		}
		if filter.SearchTerm != "" && !m.orderMatches(o, filter) {
			continue
		}
		matched = append(matched, *o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= len(matched) {
		return []domain.Order{}, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MockStore) orderMatches(o *domain.Order, filter store.OrderFilter) bool {
	if filter.SearchID != "" && o.ID == filter.SearchID {
		return true
	}
	if containsFold(o.Customer.Name, filter.SearchTerm) {
		return true
	}
	for _, item := range o.Items {
		if containsFold(item.Product, filter.SearchTerm) || containsFold(item.Category, filter.SearchTerm) {
			return true
		}
	}
	return false
}

func (m *MockStore) RecentOrders(_ context.Context, n int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := []domain.Order{}
	for _, o := range m.orders {
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if n < len(orders) {
		orders = orders[:n]
	}
	return orders, nil
}

func (m *MockStore) TransitionOrder(_ context.Context, id string, status domain.OrderStatus, stockDelta int) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransitionCalls = append(m.TransitionCalls, TransitionCall{OrderID: id, Status: status, StockDelta: stockDelta})

	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order.Status = status
	if stockDelta != 0 {
		for _, line := range order.Items {
			if item, ok := m.items[line.InventoryItemID]; ok {
				item.Quantity += stockDelta * line.Quantity
				item.Available = item.Quantity > 0
			}
		}
	}
	copied := *order
	return &copied, nil
}

func (m *MockStore) CreateUser(_ context.Context, name, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: uuid.New().String(), Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[email] = u
	copied := *u
	return &copied, nil
}

func (m *MockStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
