package orderitem

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. Product name and base price are frozen at
// creation time: later catalog edits must never change a historical order.
type OrderItem struct {
	ID                  int64            `json:"id"`
	OrderID             int64            `json:"order_id"`
	ProductID           int64            `json:"product_id"`
	ProductNameSnapshot string           `json:"product_name_snapshot"`
	BasePriceSnapshot   decimal.Decimal  `json:"base_price_snapshot"`
	Quantity            int              `json:"quantity"`
	ItemTotal           decimal.Decimal  `json:"item_total"`
	ChoiceOptions       []ChoiceSnapshot `json:"choice_options"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ChoiceSnapshot freezes one selected modifier of an order line. OptionID and
// OptionName come from a join at read time and let the admin group selections
// by axis ("Sauces", "Supplements").
type ChoiceSnapshot struct {
	ChoiceOptionID              int64           `json:"choice_option_id"`
	ChoiceNameSnapshot          string          `json:"choice_name_snapshot"`
	ChoicePriceModifierSnapshot decimal.Decimal `json:"choice_price_modifier_snapshot"`
	OptionID                    int64           `json:"option_id,omitempty"`
	OptionName                  string          `json:"option_name,omitempty"`
}
