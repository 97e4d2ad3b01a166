package domain

import "time"

// InventoryItem is a stocked product. Available is derived from Quantity and
// must be recomputed on every mutation, never left stale.
type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer is created implicitly on first order, resolved by email.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a dashboard login account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
)

// OrderItem is immutable once the order is created; only the parent order's
// status and the referenced inventory item's quantity change afterwards.
type OrderItem struct {
	InventoryItemID string `json:"inventoryItemId"`
	Product         string `json:"product"`
	Category        string `json:"category"`
	Quantity        int    `json:"quantity"`
}

type Order struct {
	ID        string      `json:"id"`
	Customer  Customer    `json:"customer"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}
