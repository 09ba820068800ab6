package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/threadline/storefront/internal/domain"
)

// ListFilter narrows and orders a product listing. Ordering accepts the
// whitelisted column names price, created_at and name, with a leading "-"
// for descending.
type ListFilter struct {
	CategorySlug string
	Featured     *bool
	Search       string
	Ordering     string
}

var orderings = map[string]string{
	"price":       "p.price ASC",
	"-price":      "p.price DESC",
	"created_at":  "p.created_at ASC",
	"-created_at": "p.created_at DESC",
	"name":        "p.name ASC",
	"-name":       "p.name DESC",
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context, filter ListFilter) ([]domain.ProductSummary, error) {
	var (
		where []string
		args  []any
	)

	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		where = append(where, fmt.Sprintf("p.featured = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	query := `
		SELECT p.id, p.name, p.slug, p.price, p.image, COALESCE(c.name, ''), p.featured, p.stock
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	orderBy, ok := orderings[filter.Ordering]
	if !ok {
		orderBy = "p.created_at DESC"
	}
	query += " ORDER BY " + orderBy

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.ProductSummary{}
	for rows.Next() {
		var p domain.ProductSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.Image, &p.Category, &p.Featured, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetBySlug returns the full product representation, or (nil, nil) when no
// product has that slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := r.scanProduct(r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.image, p.stock,
		       p.available_sizes, p.colors, p.featured, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1
	`, slug))
	if err != nil || product == nil {
		return nil, err
	}

	if err := r.loadImages(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetByID returns the product with the given internal id, or (nil, nil)
// when absent. Order creation uses it to reject dangling line items.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := r.scanProduct(r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.image, p.stock,
		       p.available_sizes, p.colors, p.featured, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id))
	if err != nil || product == nil {
		return nil, err
	}

	if err := r.loadImages(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *ProductRepository) scanProduct(row *sql.Row) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		catID   sql.NullInt64
		catName sql.NullString
		catSlug sql.NullString
		catDesc sql.NullString
	)

	err := row.Scan(
		&product.ID, &product.Name, &product.Slug, &product.Description,
		&product.Price, &product.Image, &product.Stock,
		&product.AvailableSizes, &product.Colors, &product.Featured,
		&product.CreatedAt, &product.UpdatedAt,
		&catID, &catName, &catSlug, &catDesc,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if catID.Valid {
		product.Category = &domain.Category{
			ID:          catID.Int64,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDesc.String,
		}
	}

	return product, nil
}

func (r *ProductRepository) loadImages(ctx context.Context, product *domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, image, alt_text
		FROM product_images
		WHERE product_id = $1
		ORDER BY id
	`, product.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	product.Images = []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.Image, &img.AltText); err != nil {
			return err
		}
		product.Images = append(product.Images, img)
	}

	return rows.Err()
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, description
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *ProductRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category := &domain.Category{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description
		FROM categories
		WHERE slug = $1
	`, slug).Scan(&category.ID, &category.Name, &category.Slug, &category.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return category, nil
}
