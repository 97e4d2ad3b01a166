package order

import (
	"context"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
)

// Lifecycle event types published to Kafka for the notifier.
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
)

// Event is the JSON payload published on each lifecycle transition,
// keyed by order id.
type Event struct {
	Type          string             `json:"type"`
	OrderID       string             `json:"order_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Status        domain.OrderStatus `json:"status"`
	Items         []Line             `json:"items"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// EventPublisher abstracts the Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
