package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/models/orderitem"
)

// DeliveryMode is how the order reaches the customer. Only delivery is offered
// in the current scope.
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
)

// PaymentMode is how the order is paid.
type PaymentMode string

const (
	PaymentModeCard PaymentMode = "cb"
	PaymentModeCash PaymentMode = "especes"
)

// Status is the order lifecycle state.
//
// pending -> preparing -> ready -> delivered, with cancelled reachable from
// pending/preparing. Only the pending -> preparing transition is engine-driven
// (payment confirmation); everything else is an admin write.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status string coming from the API boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid order status: %q", s)
	}
}

// Order is the order aggregate header. It owns its items and their choice
// snapshots; after creation only the status ever changes.
type Order struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Address      string                `json:"address"`
	Phone        string                `json:"phone"`
	DeliveryMode DeliveryMode          `json:"delivery_mode"`
	PaymentMode  PaymentMode           `json:"payment_mode"`
	Fee          decimal.Decimal       `json:"fee"`
	Total        decimal.Decimal       `json:"total"`
	Status       Status                `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	OrderItems   []orderitem.OrderItem `json:"order_items"`
}
