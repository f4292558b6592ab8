package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ChoiceRequest is one (option, choice) selection on an order line.
type ChoiceRequest struct {
	OptionID       int64 `json:"option_id"`
	ChoiceOptionID int64 `json:"choice_option_id"`
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Choices   []ChoiceRequest `json:"choices,omitempty"`
}

// CreateRequest is the full order submission. For card payment it is also the
// unit serialized into payment-intent metadata, so its JSON shape is part of
// the capture protocol's wire format.
type CreateRequest struct {
	Name         string           `json:"name"`
	Address      string           `json:"address"`
	Phone        string           `json:"phone"`
	DeliveryMode DeliveryMode     `json:"delivery_mode,omitempty"`
	PaymentMode  PaymentMode      `json:"payment_mode"`
	Fee          *decimal.Decimal `json:"fee,omitempty"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
	Items        []ItemRequest    `json:"items"`
}

// Validate checks the request at the boundary, before it reaches the
// assembler.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Address == "" {
		return errors.New("address is required")
	}
	if r.Phone == "" {
		return errors.New("phone is required")
	}
	switch r.PaymentMode {
	case PaymentModeCard, PaymentModeCash:
	default:
		return fmt.Errorf("invalid payment mode: %q", r.PaymentMode)
	}
	if len(r.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for i, item := range r.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("items[%d]: product_id is required", i)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("items[%d]: quantity must not be negative", i)
		}
		for j, ch := range item.Choices {
			if ch.OptionID <= 0 || ch.ChoiceOptionID <= 0 {
				return fmt.Errorf("items[%d].choices[%d]: option_id and choice_option_id are required", i, j)
			}
		}
	}
	return nil
}
