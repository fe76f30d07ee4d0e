package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/pricing"
)

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.featured, p.created_at, p.updated_at`

// PostgresStore implements Store and Writer on top of a pgx pool or transaction.
type PostgresStore struct {
	pool db.Querier
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Writer = (*PostgresStore)(nil)
)

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool db.Querier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindAll returns every product ordered by ID.
func (s *PostgresStore) FindAll(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.id`)
}

// FindFeatured returns featured products ordered by ID.
func (s *PostgresStore) FindFeatured(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products p WHERE p.featured = TRUE ORDER BY p.id`)
}

// FindByCategorySlug returns products attached to the category with the exact slug.
func (s *PostgresStore) FindByCategorySlug(ctx context.Context, slug string) ([]Product, error) {
	query := `SELECT ` + productColumns + `
FROM products p
JOIN product_categories pc ON pc.product_id = p.id
JOIN categories c ON c.id = pc.category_id
WHERE c.slug = $1
ORDER BY p.id`
	return s.queryProducts(ctx, query, slug)
}

// GetProduct loads a product by ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product %d: %w", id, err)
	}
	return p, nil
}

// GetTiers returns a product's offers ordered by minimum quantity.
func (s *PostgresStore) GetTiers(ctx context.Context, productID int64) ([]pricing.Offer, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, product_id, min_quantity, price, kind FROM product_offers WHERE product_id = $1 ORDER BY min_quantity, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog: query offers: %w", err)
	}
	defer rows.Close()

	var offers []pricing.Offer
	for rows.Next() {
		var (
			o    pricing.Offer
			kind string
		)
		if err := rows.Scan(&o.ID, &o.ProductID, &o.MinQuantity, &o.Price, &kind); err != nil {
			return nil, err
		}
		if o.Kind, err = pricing.ParseOfferKind(kind); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// ListCategories returns every category ordered by name.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateProduct inserts a product.
func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	query := `INSERT INTO products (name, slug, description, price, featured, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := s.pool.QueryRow(ctx, query, p.Name, p.Slug, p.Description, p.Price, p.Featured, now, now).Scan(&p.ID); err != nil {
		return Product{}, mapWriteError("create product", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// CreateCategory inserts a category.
func (s *PostgresStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	query := `INSERT INTO categories (name, slug, created_at) VALUES ($1, $2, NOW()) RETURNING id`
	if err := s.pool.QueryRow(ctx, query, c.Name, c.Slug).Scan(&c.ID); err != nil {
		return Category{}, mapWriteError("create category", err)
	}
	return c, nil
}

// AttachCategory links a product to a category. Attaching twice is a no-op.
func (s *PostgresStore) AttachCategory(ctx context.Context, productID, categoryID int64) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, productID, categoryID)
	if err != nil {
		return mapWriteError("attach category", err)
	}
	return nil
}

// CreateOffer inserts a price tier.
func (s *PostgresStore) CreateOffer(ctx context.Context, o pricing.Offer) (pricing.Offer, error) {
	if o.Kind == "" {
		o.Kind = pricing.OfferKindUnit
	}
	query := `INSERT INTO product_offers (product_id, min_quantity, price, kind) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := s.pool.QueryRow(ctx, query, o.ProductID, o.MinQuantity, o.Price, string(o.Kind)).Scan(&o.ID); err != nil {
		return pricing.Offer{}, mapWriteError("create offer", err)
	}
	return o, nil
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// mapWriteError translates constraint violations into catalog sentinels.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("catalog: %s: %w", op, ErrDuplicate)
		case "23503":
			return fmt.Errorf("catalog: %s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("catalog: %s: %w", op, err)
}
