// Package catalogsvc serves the menu read API.
package catalogsvc

import (
	"context"
	"errors"

	"github.com/snackline/backend/internal/dal/interfaces/icatalogrepo"
	"github.com/snackline/backend/internal/dal/postgres"
	"github.com/snackline/backend/internal/dal/uow"
	"github.com/snackline/backend/internal/service/models/catalog"
)

// ErrProductNotFound reports a lookup for a product that does not exist.
var ErrProductNotFound = errors.New("product not found")

// CatalogService exposes menu reads: categories, products and one product
// with its full option tree.
type CatalogService struct {
	newRepo func() icatalogrepo.ICatalogRepository
}

// option is a function that configures the CatalogService.
type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.newRepo == nil {
		panic("catalogsvc: no catalog repository source configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CatalogService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CatalogService) {
		s.newRepo = func() icatalogrepo.ICatalogRepository {
			return uow.NewUnitOfWork(pgClient).CatalogRepository()
		}
	}
}

// WithCatalogRepositoryFactory overrides the repository source (tests).
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCatalogRepositoryFactory(factory func() icatalogrepo.ICatalogRepository) option {
	return func(s *CatalogService) {
		s.newRepo = factory
	}
}

// ListCategories returns all menu categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return s.newRepo().ListCategories(ctx)
}

// ListProducts returns all products with their category.
func (s *CatalogService) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.newRepo().ListProducts(ctx)
}

// GetProduct returns one product with category, options and choice options.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	product, err := s.newRepo().ProductWithOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	return product, nil
}
