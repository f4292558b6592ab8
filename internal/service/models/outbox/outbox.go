package outbox

import (
	"time"
)

// Message is a pending RabbitMQ publication stored in the outbox table. Rows
// are written in the same transaction as the order mutation they describe and
// drained by the outbox worker.
type Message struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}
