package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/winnerbanjo/nile-collective/internal/orders"
	"github.com/winnerbanjo/nile-collective/internal/redisx"
)

// SendTimeout bounds a single delivery attempt. A send that overruns it is
// abandoned and logged; it is never retried.
const SendTimeout = 10 * time.Second

// Mailer turns notification envelopes into emails. Best effort, at most one
// attempt: every message is committed whether or not the send worked.
type Mailer struct {
	Sender     Sender
	Redis      *redis.Client
	StoreName  string
	AdminEmail string
}

// Handle is the consumer handler. It always returns nil: a failed send must
// not hold the offset and force redelivery.
func (m *Mailer) Handle(ctx context.Context, msg kafkago.Message) error {
	var ev Envelope
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Printf("mailer: drop undecodable message: %v", err)
		return nil
	}

	// dedup on event id so a rebalance replay does not email twice
	if m.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyMailDedup, ev.EventID)
		if seen, _ := redisx.Exists(ctx, m.Redis, dkey); seen {
			return nil
		}
		_ = m.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	to, subject, body := m.Render(ev.Kind, &ev.Order)
	if to == "" {
		log.Printf("mailer: no recipient for kind=%s order=%s", ev.Kind, ev.Order.ID)
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()
	if err := m.Sender.Send(sctx, to, subject, body); err != nil {
		log.Printf("mailer: send failed kind=%s order=%s: %v", ev.Kind, ev.Order.ID, err)
	}
	return nil
}

// Render builds the recipient, subject and body for a notification kind.
// Each message is self-contained; there is no shared template layer.
func (m *Mailer) Render(kind orders.NotificationKind, o *orders.Order) (to, subject, body string) {
	cust := o.ShippingDetails.Email
	name := o.ShippingDetails.Name
	if name == "" {
		name = "there"
	}

	switch kind {
	case orders.NotifyOrderConfirmation:
		return cust,
			fmt.Sprintf("Your %s order %s is confirmed", m.StoreName, shortID(o.ID)),
			fmt.Sprintf("Hi %s,\n\nThanks for shopping with %s! We received your order.\n\n%s\nWe will email you again when it ships.\n",
				name, m.StoreName, summary(o))

	case orders.NotifyAdminNewOrder:
		return m.AdminEmail,
			fmt.Sprintf("New order %s (%s)", shortID(o.ID), o.PaymentMethod),
			fmt.Sprintf("New order from %s <%s>.\n\n%sShipping: %s, %s %s\n",
				name, cust, summary(o), o.ShippingDetails.Address, o.ShippingDetails.City, o.ShippingDetails.State)

	case orders.NotifyStatusUpdate:
		return cust,
			fmt.Sprintf("Order %s update: %s", shortID(o.ID), o.Status),
			fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n\n%s",
				name, shortID(o.ID), o.Status, summary(o))

	case orders.NotifyShippedUpdate:
		return cust,
			fmt.Sprintf("Your %s order %s has shipped", m.StoreName, shortID(o.ID)),
			fmt.Sprintf("Hi %s,\n\nGood news - your order %s is on its way to %s, %s.\n\n%s",
				name, shortID(o.ID), o.ShippingDetails.Address, o.ShippingDetails.City, summary(o))

	case orders.NotifyTransferPending:
		return cust,
			fmt.Sprintf("We received your order %s", shortID(o.ID)),
			fmt.Sprintf("Hi %s,\n\nWe received your bank transfer receipt and are confirming your payment. You will get an official receipt once it is verified.\n\n%s",
				name, summary(o))

	case orders.NotifyTransferAdminAlert:
		return m.AdminEmail,
			fmt.Sprintf("Bank transfer awaiting verification: order %s", shortID(o.ID)),
			fmt.Sprintf("Order %s from %s <%s> is pending verification.\nReceipt: %s\n\n%s",
				shortID(o.ID), name, cust, o.ReceiptURL, summary(o))

	case orders.NotifyOfficialReceipt:
		return cust,
			fmt.Sprintf("%s official receipt - order %s", m.StoreName, shortID(o.ID)),
			fmt.Sprintf("Hi %s,\n\nYour payment has been confirmed. This is your official receipt.\n\n%sPayment method: %s\n",
				name, summary(o), o.PaymentMethod)
	}
	return "", "", ""
}

func summary(o *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.ID)
	for _, it := range o.Items {
		line := fmt.Sprintf("  %d x %s", it.Quantity, it.Name)
		if it.Size != "" || it.Color != "" {
			line += fmt.Sprintf(" (%s/%s)", it.Size, it.Color)
		}
		fmt.Fprintf(&b, "%s - %s\n", line, naira(it.Price*int64(it.Quantity)))
	}
	if o.ShippingFee > 0 {
		fmt.Fprintf(&b, "  Shipping - %s\n", naira(o.ShippingFee))
	}
	fmt.Fprintf(&b, "Total: %s\n", naira(o.TotalAmount))
	return b.String()
}

func naira(kobo int64) string {
	return fmt.Sprintf("NGN %.2f", float64(kobo)/100)
}

// shortID keeps subjects readable; the full id stays in the body summary.
func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
