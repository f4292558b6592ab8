package icatalogrepo

import (
	"context"

	"github.com/snackline/backend/internal/service/models/catalog"
)

// ICatalogRepository is the read-side catalog contract consumed by pricing and
// assembly. Lookups are batched: one query per entity type per order.
type ICatalogRepository interface {
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error)
	OptionsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Option, error)
	ChoiceOptionsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.ChoiceOption, error)

	// ProductsByNames resolves exact product names (case-insensitive) to
	// products with their category loaded. Keys of the result map are
	// lower-cased trimmed names.
	ProductsByNames(ctx context.Context, names []string) (map[string]*catalog.Product, error)

	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)

	// ProductWithOptions loads one product with its category, options and
	// choice options. Returns nil when the product does not exist.
	ProductWithOptions(ctx context.Context, id int64) (*catalog.Product, error)
}
