package catalogsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/snackline/backend/internal/dal/interfaces/icatalogrepo"
	"github.com/snackline/backend/internal/service/models/catalog"
)

type fakeRepo struct {
	categories []catalog.Category
	products   []catalog.Product
	byID       map[int64]*catalog.Product
}

func (f *fakeRepo) ProductsByIDs(_ context.Context, _ []int64) (map[int64]*catalog.Product, error) {
	return nil, nil
}

func (f *fakeRepo) OptionsByIDs(_ context.Context, _ []int64) (map[int64]*catalog.Option, error) {
	return nil, nil
}

func (f *fakeRepo) ChoiceOptionsByIDs(_ context.Context, _ []int64) (map[int64]*catalog.ChoiceOption, error) {
	return nil, nil
}

func (f *fakeRepo) ProductsByNames(_ context.Context, _ []string) (map[string]*catalog.Product, error) {
	return nil, nil
}

func (f *fakeRepo) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fakeRepo) ListProducts(_ context.Context) ([]catalog.Product, error) {
	return f.products, nil
}

func (f *fakeRepo) ProductWithOptions(_ context.Context, id int64) (*catalog.Product, error) {
	return f.byID[id], nil
}

func newService(repo *fakeRepo) *CatalogService {
	return MustNewCatalogService(
		WithCatalogRepositoryFactory(func() icatalogrepo.ICatalogRepository { return repo }),
	)
}

func TestListCategoriesAndProducts(t *testing.T) {
	repo := &fakeRepo{
		categories: []catalog.Category{{ID: 1, Name: "Tacos"}},
		products:   []catalog.Product{{ID: 1, Name: "Tacos"}, {ID: 2, Name: "Frites"}},
	}
	svc := newService(repo)

	categories, err := svc.ListCategories(context.Background())
	if err != nil || len(categories) != 1 {
		t.Errorf("ListCategories = %v, %v", categories, err)
	}

	products, err := svc.ListProducts(context.Background())
	if err != nil || len(products) != 2 {
		t.Errorf("ListProducts = %v, %v", products, err)
	}
}

func TestGetProduct(t *testing.T) {
	repo := &fakeRepo{byID: map[int64]*catalog.Product{
		7: {ID: 7, Name: "Tacos", Options: []catalog.Option{{ID: 1, Name: "Viandes"}}},
	}}
	svc := newService(repo)

	p, err := svc.GetProduct(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.Name != "Tacos" || len(p.Options) != 1 {
		t.Errorf("product = %+v", p)
	}

	if _, err := svc.GetProduct(context.Background(), 99); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}
