package email

import (
	"fmt"
	"strings"

	"github.com/example/inventory-dashboard/internal/order"
)

// BuildOrderConfirmationBody renders the order confirmation HTML body.
func BuildOrderConfirmationBody(name, orderID string, items []order.Line) string {
	var rows strings.Builder
	for _, item := range items {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td></tr>", item.Product, item.Quantity))
	}

	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Thanks for your order <strong>%s</strong>. We will let you know once payment is confirmed.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Product</th><th>Quantity</th></tr>
%s
</table>
<p>The Dashboard Team</p>
</body></html>`, name, orderID, rows.String())
}

// BuildPaymentReceiptBody renders the payment receipt HTML body.
func BuildPaymentReceiptBody(name, orderID string) string {
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>We received your payment for order <strong>%s</strong>. Your items are on the way.</p>
<p>The Dashboard Team</p>
</body></html>`, name, orderID)
}

// BuildRefundNoticeBody renders the refund notice HTML body.
func BuildRefundNoticeBody(name, orderID string) string {
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Your refund for order <strong>%s</strong> has been processed. The amount should appear on your statement within a few days.</p>
<p>The Dashboard Team</p>
</body></html>`, name, orderID)
}
