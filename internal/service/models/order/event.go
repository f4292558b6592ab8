package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published through the outbox.
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event is the order lifecycle message published to RabbitMQ.
type Event struct {
	Type        string          `json:"type"`
	OrderID     int64           `json:"order_id"`
	Status      Status          `json:"status"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	Total       decimal.Decimal `json:"total"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
