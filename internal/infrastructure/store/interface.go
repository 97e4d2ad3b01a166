package store

import (
	"context"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
)

// ItemFilter narrows inventory listings. Category and Name are
// case-insensitive substring matches; Available is an exact match when set.
type ItemFilter struct {
	Category  string
	Available *bool
	Name      string
}

// OrderFilter narrows order listings. Start/End apply only when both are set.
// SearchID is the exact-id branch of the search, set when the search term
// parses as a valid order id.
type OrderFilter struct {
	Status     string
	Start      *time.Time
	End        *time.Time
	SearchTerm string
	SearchID   string
}

// OrderItemInput is a requested line at order creation time.
type OrderItemInput struct {
	InventoryItemID string
	Quantity        int
}

// Interface is the persistence contract for the dashboard.
// Get* methods return (nil, nil) when the record does not exist.
type Interface interface {
	// Inventory
	CreateItem(ctx context.Context, name, category string, quantity int) (*domain.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]domain.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	GetItemByName(ctx context.Context, name string) (*domain.InventoryItem, error)
	SetItemQuantity(ctx context.Context, id string, quantity int) (*domain.InventoryItem, error)

	// Customers
	UpsertCustomer(ctx context.Context, name, email string) (*domain.Customer, error)

	// Orders
	CreateOrder(ctx context.Context, customerID string, items []OrderItemInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]domain.Order, int, error)
	RecentOrders(ctx context.Context, n int) ([]domain.Order, error)
	// TransitionOrder updates the order status and adjusts each item's stock
	// by stockDelta times the ordered quantity, in a single transaction.
	// stockDelta is -1 at payment, +1 on restock, 0 for no stock change.
	TransitionOrder(ctx context.Context, id string, status domain.OrderStatus, stockDelta int) (*domain.Order, error)

	// Users
	CreateUser(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
