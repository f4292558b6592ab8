// Package catalog holds the menu read models: categories, products and their
// configurable options.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the menu. The category slug also drives combo
// burger pricing, so renaming categories changes prices.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is one orderable menu entry.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ImageURL    string          `json:"image_url,omitempty"`
	CategoryID  int64           `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category *Category `json:"category,omitempty"`
	Options  []Option  `json:"options,omitempty"`
}

// Option is a configurable axis on a product (sauces, meats, sizes).
type Option struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Type      string    `json:"type"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ChoiceOptions []ChoiceOption `json:"choice_options,omitempty"`
}

// ChoiceOption is one selectable value under an option, carrying its price
// delta relative to the product base price.
type ChoiceOption struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	OptionID      int64           `json:"option_id"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
