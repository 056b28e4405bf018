package redisx

import "time"

const (
	// Cache for GET /orders/{id}: order_status:{order_id} -> serialized order
	KeyOrderStatus = "order_status:%s"

	// Dedup for the mailer consumer: dedup:mailer:{event_id}
	KeyMailDedup = "dedup:mailer:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
