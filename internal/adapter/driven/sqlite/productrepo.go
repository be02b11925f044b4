package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProductStore = (*ProductRepo)(nil)

// productQuery joins rated top-level reviews so rating statistics are computed
// in the same read as the product row.
const productQuery = `
	SELECT p.id, p.name, p.description, p.image_url, p.price,
	       COALESCE(AVG(r.rating), 0), COUNT(r.id)
	FROM products p
	LEFT JOIN reviews r
	       ON r.product_id = p.id
	      AND r.parent_review_id IS NULL
	      AND r.rating IS NOT NULL
`

// ProductRepo is the SQLite implementation of the ProductStore port interface.
type ProductRepo struct {
	db *DB
}

// NewProductRepo creates a new ProductRepo backed by the given DB.
func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetByID returns the product with its rating statistics, or nil, nil when absent.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = productQuery + ` WHERE p.id = ? GROUP BY p.id`

	product, err := scanProduct(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	return product, nil
}

// ListAll returns every product ordered by id.
func (r *ProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	const query = productQuery + ` GROUP BY p.id ORDER BY p.id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func scanProduct(s scanner) (*model.Product, error) {
	var p model.Product

	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.AverageRating, &p.ReviewCount)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
