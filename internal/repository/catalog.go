package repository

import (
	"context"
	"fmt"

	"storefront/web/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository reads the taxonomy straight from the catalog database.
// It satisfies the same contract as the HTTP catalog client.
type CatalogRepository interface {
	FetchCategories(ctx context.Context) (domain.Categories, error)
	FetchSubcategories(ctx context.Context) (domain.Subcategories, error)
	FetchProductTypes(ctx context.Context) (domain.ProductTypes, error)
	FetchProducts(ctx context.Context) (domain.Products, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type catalogRepository struct {
	db Querier
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

func (r *catalogRepository) FetchCategories(ctx context.Context) (domain.Categories, error) {
	query := `SELECT id, category_name FROM categories`
	items, err := collect(ctx, r.db, query, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	}, func(c domain.Category) string { return c.ID })
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return domain.Categories(items), nil
}

func (r *catalogRepository) FetchSubcategories(ctx context.Context) (domain.Subcategories, error) {
	query := `SELECT id, category_id, subcategory_name FROM subcategories`
	items, err := collect(ctx, r.db, query, func(row pgx.CollectableRow) (domain.Subcategory, error) {
		var s domain.Subcategory
		err := row.Scan(&s.ID, &s.CategoryID, &s.Name)
		return s, err
	}, func(s domain.Subcategory) string { return s.ID })
	if err != nil {
		return nil, fmt.Errorf("failed to load subcategories: %w", err)
	}
	return domain.Subcategories(items), nil
}

func (r *catalogRepository) FetchProductTypes(ctx context.Context) (domain.ProductTypes, error) {
	query := `SELECT id, subcategory_id, product_type_name FROM product_types`
	items, err := collect(ctx, r.db, query, func(row pgx.CollectableRow) (domain.ProductType, error) {
		var pt domain.ProductType
		err := row.Scan(&pt.ID, &pt.SubcategoryID, &pt.Name)
		return pt, err
	}, func(pt domain.ProductType) string { return pt.ID })
	if err != nil {
		return nil, fmt.Errorf("failed to load product types: %w", err)
	}
	return domain.ProductTypes(items), nil
}

func (r *catalogRepository) FetchProducts(ctx context.Context) (domain.Products, error) {
	query := `
	SELECT id, product_name, COALESCE(description, ''), price, COALESCE(product_type_id, '')
	FROM products`
	items, err := collect(ctx, r.db, query, func(row pgx.CollectableRow) (domain.Product, error) {
		var p domain.Product
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ProductTypeID)
		return p, err
	}, func(p domain.Product) string { return p.ID })
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return domain.Products(items), nil
}

func collect[T any](ctx context.Context, db Querier, query string, scan pgx.RowToFunc[T], id func(T) string) (map[string]T, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	list, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, err
	}

	items := make(map[string]T, len(list))
	for _, v := range list {
		items[id(v)] = v
	}
	return items, nil
}
