package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/inventory-dashboard/internal/order"
)

// Sender is the email surface the notifier needs.
type Sender interface {
	SendOrderConfirmation(to, name, orderID string, items []order.Line) error
	SendPaymentReceipt(to, name, orderID string) error
	SendRefundNotice(to, name, orderID string) error
}

// Handler processes order lifecycle events for sending notifications
type Handler struct {
	email Sender
}

// NewHandler creates a new notification handler
func NewHandler(email Sender) *Handler {
	return &Handler{email: email}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(_ context.Context, _, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if event.CustomerEmail == "" {
		log.Printf("[Notifier] Event %s for order %s has no customer email", event.Type, event.OrderID)
		return nil
	}

	switch event.Type {
	case order.EventOrderCreated:
		log.Printf("[Notifier] Sending order confirmation for order %s", event.OrderID)
		return h.email.SendOrderConfirmation(event.CustomerEmail, event.CustomerName, event.OrderID, event.Items)
	case order.EventOrderPaid:
		log.Printf("[Notifier] Sending payment receipt for order %s", event.OrderID)
		return h.email.SendPaymentReceipt(event.CustomerEmail, event.CustomerName, event.OrderID)
	case order.EventOrderRefunded:
		log.Printf("[Notifier] Sending refund notice for order %s", event.OrderID)
		return h.email.SendRefundNotice(event.CustomerEmail, event.CustomerName, event.OrderID)
	}

	return nil
}
