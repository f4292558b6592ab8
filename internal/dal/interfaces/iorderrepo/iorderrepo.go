package iorderrepo

import (
	"context"

	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/models/orderitem"
)

// IOrderRepository is the Postgres order repository contract.
type IOrderRepository interface {
	// Insert persists the order header, its items and their choice snapshots.
	// Must run inside the unit of work's transaction.
	Insert(ctx context.Context, o *order.Order) (*order.Order, error)

	// Query retrieves order headers matching the filter.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// ItemsByOrderIDs retrieves items (with choice snapshots) for a set of
	// orders in one round trip per table.
	ItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]orderitem.OrderItem, error)

	// UpdateStatus sets the status of an order. Returns the number of rows
	// affected.
	UpdateStatus(ctx context.Context, id int64, status order.Status) (int64, error)
}
