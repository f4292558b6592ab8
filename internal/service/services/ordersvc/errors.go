package ordersvc

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound reports a lookup for an order that does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ProductNotFoundError reports an order line referencing a missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ProductID)
}
