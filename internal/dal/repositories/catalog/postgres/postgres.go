package catalogrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/dal/postgres"
	"github.com/snackline/backend/internal/service/models/catalog"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id          int64
	Name        string
	Slug        string
	Description string
	BasePrice   decimal.Decimal
	ImageUrl    string
	CategoryId  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToModel converts ProductDal to the service layer Product model.
func (p *ProductDal) ToModel() *catalog.Product {
	return &catalog.Product{
		ID:          p.Id,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		ImageURL:    p.ImageUrl,
		CategoryID:  p.CategoryId,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

var productColumns = []string{
	"id",
	"name",
	"COALESCE(slug, '')",
	"COALESCE(description, '')",
	"base_price",
	"COALESCE(image_url, '')",
	"category_id",
	"created_at",
	"updated_at",
}

type PostgresCatalogRepository struct {
	conn postgres.Querier
}

func NewPostgresCatalogRepository(conn postgres.Querier) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{conn: conn}
}

func (r *PostgresCatalogRepository) scanProduct(row interface{ Scan(...any) error }) (*ProductDal, error) {
	var dal ProductDal
	err := row.Scan(
		&dal.Id,
		&dal.Name,
		&dal.Slug,
		&dal.Description,
		&dal.BasePrice,
		&dal.ImageUrl,
		&dal.CategoryId,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &dal, nil
}

// ProductsByIDs batch-fetches products by id.
func (r *PostgresCatalogRepository) ProductsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	result := make(map[int64]*catalog.Product)
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		dal, err := r.scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result[dal.Id] = dal.ToModel()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// OptionsByIDs batch-fetches options by id.
func (r *PostgresCatalogRepository) OptionsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Option, error) {
	result := make(map[int64]*catalog.Option)
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sq.Select(
		"id",
		"name",
		"COALESCE(slug, '')",
		"type",
		"COALESCE(image_url, '')",
		"created_at",
		"updated_at",
	).
		From("options").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build options query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o catalog.Option
		err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Type, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		result[o.ID] = &o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ChoiceOptionsByIDs batch-fetches choice options by id.
func (r *PostgresCatalogRepository) ChoiceOptionsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.ChoiceOption, error) {
	result := make(map[int64]*catalog.ChoiceOption)
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sq.Select(
		"id",
		"name",
		"price_modifier",
		"option_id",
		"COALESCE(image_url, '')",
		"created_at",
		"updated_at",
	).
		From("choice_options").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build choice options query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choice options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var co catalog.ChoiceOption
		err := rows.Scan(&co.ID, &co.Name, &co.PriceModifier, &co.OptionID, &co.ImageURL, &co.CreatedAt, &co.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan choice option: %w", err)
		}
		result[co.ID] = &co
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ProductsByNames resolves exact names (case-insensitive) to products with
// their category, for combo burger classification. Map keys are lower-cased
// trimmed names.
func (r *PostgresCatalogRepository) ProductsByNames(ctx context.Context, names []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product)
	if len(names) == 0 {
		return result, nil
	}

	lowered := make([]string, 0, len(names))
	for _, n := range names {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(n)))
	}

	query, args, err := sq.Select(
		"p.id",
		"p.name",
		"COALESCE(p.slug, '')",
		"COALESCE(p.description, '')",
		"p.base_price",
		"COALESCE(p.image_url, '')",
		"p.category_id",
		"p.created_at",
		"p.updated_at",
		"c.id",
		"c.name",
		"COALESCE(c.slug, '')",
		"c.created_at",
		"c.updated_at",
	).
		From("products p").
		Join("categories c ON c.id = p.category_id").
		Where(sq.Expr("LOWER(p.name) = ANY(?)", lowered)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products-by-name query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dal ProductDal
		var cat catalog.Category
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Slug,
			&dal.Description,
			&dal.BasePrice,
			&dal.ImageUrl,
			&dal.CategoryId,
			&dal.CreatedAt,
			&dal.UpdatedAt,
			&cat.ID,
			&cat.Name,
			&cat.Slug,
			&cat.CreatedAt,
			&cat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product with category: %w", err)
		}
		model := dal.ToModel()
		model.Category = &cat
		result[strings.ToLower(strings.TrimSpace(model.Name))] = model
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ListCategories returns all categories ordered by name.
func (r *PostgresCatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	query, args, err := sq.Select("id", "name", "COALESCE(slug, '')", "created_at", "updated_at").
		From("categories").
		OrderBy("name ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build categories query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var result []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ListProducts returns all products with their category loaded.
func (r *PostgresCatalogRepository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	query, args, err := sq.Select(
		"p.id",
		"p.name",
		"COALESCE(p.slug, '')",
		"COALESCE(p.description, '')",
		"p.base_price",
		"COALESCE(p.image_url, '')",
		"p.category_id",
		"p.created_at",
		"p.updated_at",
		"c.id",
		"c.name",
		"COALESCE(c.slug, '')",
		"c.created_at",
		"c.updated_at",
	).
		From("products p").
		Join("categories c ON c.id = p.category_id").
		OrderBy("p.id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []catalog.Product
	for rows.Next() {
		var dal ProductDal
		var cat catalog.Category
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Slug,
			&dal.Description,
			&dal.BasePrice,
			&dal.ImageUrl,
			&dal.CategoryId,
			&dal.CreatedAt,
			&dal.UpdatedAt,
			&cat.ID,
			&cat.Name,
			&cat.Slug,
			&cat.CreatedAt,
			&cat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		model := dal.ToModel()
		model.Category = &cat
		result = append(result, *model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ProductWithOptions loads one product with category, options and choice
// options. Returns nil when the product does not exist.
func (r *PostgresCatalogRepository) ProductWithOptions(ctx context.Context, id int64) (*catalog.Product, error) {
	products, err := r.ProductsByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	product, ok := products[id]
	if !ok {
		return nil, nil
	}

	categories, err := r.categoryByID(ctx, product.CategoryID)
	if err != nil {
		return nil, err
	}
	product.Category = categories

	query, args, err := sq.Select(
		"o.id",
		"o.name",
		"COALESCE(o.slug, '')",
		"o.type",
		"COALESCE(o.image_url, '')",
		"o.created_at",
		"o.updated_at",
	).
		From("options o").
		Join("product_options po ON po.option_id = o.id").
		Where(sq.Eq{"po.product_id": id}).
		OrderBy("o.id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product options query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product options: %w", err)
	}
	defer rows.Close()

	var optionIDs []int64
	for rows.Next() {
		var o catalog.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Type, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		product.Options = append(product.Options, o)
		optionIDs = append(optionIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(optionIDs) == 0 {
		return product, nil
	}

	choices, err := r.choiceOptionsByOptionIDs(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	for i := range product.Options {
		product.Options[i].ChoiceOptions = choices[product.Options[i].ID]
	}

	return product, nil
}

func (r *PostgresCatalogRepository) categoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	query, args, err := sq.Select("id", "name", "COALESCE(slug, '')", "created_at", "updated_at").
		From("categories").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category query: %w", err)
	}

	var c catalog.Category
	row := r.conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return &c, nil
}

func (r *PostgresCatalogRepository) choiceOptionsByOptionIDs(ctx context.Context, optionIDs []int64) (map[int64][]catalog.ChoiceOption, error) {
	query, args, err := sq.Select(
		"id",
		"name",
		"price_modifier",
		"option_id",
		"COALESCE(image_url, '')",
		"created_at",
		"updated_at",
	).
		From("choice_options").
		Where(sq.Eq{"option_id": optionIDs}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build choice options query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choice options: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]catalog.ChoiceOption)
	for rows.Next() {
		var co catalog.ChoiceOption
		if err := rows.Scan(&co.ID, &co.Name, &co.PriceModifier, &co.OptionID, &co.ImageURL, &co.CreatedAt, &co.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan choice option: %w", err)
		}
		result[co.OptionID] = append(result[co.OptionID], co)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
