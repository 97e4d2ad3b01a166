package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/inventory-dashboard/internal/order"
)

type sentMail struct {
	Kind    string
	To      string
	OrderID string
}

type mockSender struct {
	Sent []sentMail
}

func (m *mockSender) SendOrderConfirmation(to, _, orderID string, _ []order.Line) error {
	m.Sent = append(m.Sent, sentMail{Kind: "confirmation", To: to, OrderID: orderID})
	return nil
}

func (m *mockSender) SendPaymentReceipt(to, _, orderID string) error {
	m.Sent = append(m.Sent, sentMail{Kind: "receipt", To: to, OrderID: orderID})
	return nil
}

func (m *mockSender) SendRefundNotice(to, _, orderID string) error {
	m.Sent = append(m.Sent, sentMail{Kind: "refund", To: to, OrderID: orderID})
	return nil
}

func encodeEvent(t *testing.T, event order.Event) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestHandler_OrderCreated(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, encodeEvent(t, order.Event{
		Type:          order.EventOrderCreated,
		OrderID:       "order-1",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []order.Line{{Product: "Laptop", Quantity: 2}},
	}))

	require.NoError(t, err)
	require.Len(t, sender.Sent, 1)
	assert.Equal(t, sentMail{Kind: "confirmation", To: "ada@example.com", OrderID: "order-1"}, sender.Sent[0])
}

func TestHandler_OrderPaid(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, encodeEvent(t, order.Event{
		Type:          order.EventOrderPaid,
		OrderID:       "order-2",
		CustomerEmail: "ada@example.com",
	}))

	require.NoError(t, err)
	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "receipt", sender.Sent[0].Kind)
}

func TestHandler_OrderRefunded(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, encodeEvent(t, order.Event{
		Type:          order.EventOrderRefunded,
		OrderID:       "order-3",
		CustomerEmail: "ada@example.com",
	}))

	require.NoError(t, err)
	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "refund", sender.Sent[0].Kind)
}

func TestHandler_OrderCancelled_NoMail(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, encodeEvent(t, order.Event{
		Type:          order.EventOrderCancelled,
		OrderID:       "order-4",
		CustomerEmail: "ada@example.com",
	}))

	require.NoError(t, err)
	assert.Empty(t, sender.Sent)
}

func TestHandler_MissingEmail_Skipped(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, encodeEvent(t, order.Event{
		Type:    order.EventOrderCreated,
		OrderID: "order-5",
	}))

	require.NoError(t, err)
	assert.Empty(t, sender.Sent)
}

func TestHandler_MalformedPayload(t *testing.T) {
	sender := &mockSender{}
	handler := NewHandler(sender)

	err := handler.HandleEvent(context.Background(), nil, []byte("not-json"))

	assert.Error(t, err)
	assert.Empty(t, sender.Sent)
}
