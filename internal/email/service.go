package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/inventory-dashboard/internal/order"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, name, orderID string, items []order.Line) error {
	subject := fmt.Sprintf("Order confirmation (order %s)", shortID(orderID))
	body := BuildOrderConfirmationBody(name, orderID, items)
	return s.send(to, subject, body)
}

// SendPaymentReceipt sends a payment receipt email
func (s *Service) SendPaymentReceipt(to, name, orderID string) error {
	subject := fmt.Sprintf("Payment received (order %s)", shortID(orderID))
	body := BuildPaymentReceiptBody(name, orderID)
	return s.send(to, subject, body)
}

// SendRefundNotice sends a refund notice email
func (s *Service) SendRefundNotice(to, name, orderID string) error {
	subject := fmt.Sprintf("Refund processed (order %s)", shortID(orderID))
	body := BuildRefundNoticeBody(name, orderID)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}
