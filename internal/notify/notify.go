// Package notify carries order lifecycle notifications from the API to the
// mailer worker. Dispatch is fire-and-forget: it never blocks the request
// that triggered it and never reports failure to it.
package notify

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/winnerbanjo/nile-collective/internal/kafka"
	"github.com/winnerbanjo/nile-collective/internal/orders"
)

const Topic = "orders.notifications"

// Envelope is self-contained: the mailer renders from the snapshot alone and
// never reads the order back from the store.
type Envelope struct {
	EventID    string                  `json:"event_id"`
	Kind       orders.NotificationKind `json:"kind"`
	OccurredAt time.Time               `json:"occurred_at"`
	Producer   string                  `json:"producer"`
	Order      orders.Order            `json:"order"`
}

// KafkaDispatcher publishes envelopes through the async producer. The
// publish itself is the only work done on the request path.
type KafkaDispatcher struct {
	Producer *kafkax.Producer
	Service  string
}

func (d *KafkaDispatcher) Dispatch(kind orders.NotificationKind, o *orders.Order) {
	ev := Envelope{
		EventID:    uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Producer:   d.Service,
		Order:      *o,
	}
	d.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-notification-kind", Value: []byte(kind)},
	)
}

// Partition key = order id, so all notifications for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
