package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
)

const uniqueViolation = "23505"

// ProductRepository is the SQL catalog source. Products come back in insertion order.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, limit int) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
	SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error)
	FetchCatalog(ctx context.Context) ([]domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, brand, category, price, image_url, description, rating, review_count, size, tags`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create inserts a product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	return insertProduct(ctx, r.db, product)
}

func insertProduct(ctx context.Context, db execer, product domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Brand,
		string(product.Category),
		product.Price,
		product.ImageURL,
		product.Description,
		product.Rating,
		product.ReviewCount,
		product.Size,
		tags,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrProductAlreadyExists, product.ID)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(pgtype.NewMap(), r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns up to limit products in insertion order
func (r *productRepository) List(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY position LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	// pgtype.Map caches scan plans and is not safe for concurrent use
	types := pgtype.NewMap()
	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(types, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Count returns the number of stored products
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// SeedIfEmpty inserts products in one transaction when the table has none.
// It reports whether anything was written.
func (r *productRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialises concurrent seeders across instances
	if _, err := tx.ExecContext(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("failed to lock products: %w", err)
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	if total > 0 {
		return false, nil
	}

	for _, p := range products {
		if err := insertProduct(ctx, tx, p); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}

// FetchCatalog lists the catalog for a session. Validation is left to the caller.
func (r *productRepository) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	products, err := r.List(ctx, domain.MaxCatalogSize)
	if err != nil {
		return nil, domain.NewProviderError("repository.FetchCatalog", domain.ErrFetch, err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(types *pgtype.Map, row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		category string
		tags     []string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&category,
		&p.Price,
		&p.ImageURL,
		&p.Description,
		&p.Rating,
		&p.ReviewCount,
		&p.Size,
		types.SQLScanner(&tags),
	)
	if err != nil {
		return domain.Product{}, err
	}

	p.Category = domain.Category(category)
	if tags == nil {
		tags = []string{}
	}
	p.Tags = tags
	return p, nil
}
