package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelflife/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository is the owner-scoped data access contract for products.
// Every query carries the owner id, so one user's products are never visible
// to another.
type ProductRepository interface {
	List(ctx context.Context, ownerID string) ([]*domain.Product, error)
	FindByID(ctx context.Context, ownerID, id string) (*domain.Product, error)
	Insert(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, ownerID, id string) error
}

type postgresProductRepository struct {
	db *sql.DB
}

// NewPostgresProductRepository creates the default postgres-backed repository.
func NewPostgresProductRepository(db *sql.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

const productColumns = `id, user_id, brand, name, expiry_date, opened_date, purchase_date, notes, photo, created_at, updated_at`

// Insert stores a new product using parameterized queries.
func (r *postgresProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.UserID,
		product.Brand,
		product.Name,
		dateParam(product.ExpiryDate),
		dateParam(product.OpenedDate),
		dateParam(product.PurchaseDate),
		product.Notes,
		product.Photo,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of an existing product. The owner id
// is part of the predicate, so a caller can never update another user's row.
func (r *postgresProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET brand = $3, name = $4, expiry_date = $5, opened_date = $6,
		    purchase_date = $7, notes = $8, photo = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.UserID,
		product.Brand,
		product.Name,
		dateParam(product.ExpiryDate),
		dateParam(product.OpenedDate),
		dateParam(product.PurchaseDate),
		product.Notes,
		product.Photo,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product permanently. There is no soft delete.
func (r *postgresProductRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a single product within the owner's scope.
func (r *postgresProductRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND user_id = $2
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns all of the owner's products ordered by creation time. Display
// ordering (expiry ascending, undated last) is applied by the service layer.
func (r *postgresProductRepository) List(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var expiry, opened, purchase sql.NullTime

	err := row.Scan(
		&product.ID,
		&product.UserID,
		&product.Brand,
		&product.Name,
		&expiry,
		&opened,
		&purchase,
		&product.Notes,
		&product.Photo,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.ExpiryDate = canonicalNullDate(expiry)
	product.OpenedDate = canonicalNullDate(opened)
	product.PurchaseDate = canonicalNullDate(purchase)

	return product, nil
}

// dateParam maps an absent calendar date to SQL NULL.
func dateParam(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func canonicalNullDate(nt sql.NullTime) string {
	if !nt.Valid {
		return ""
	}
	s, _ := domain.CanonicalDate(nt.Time)
	return s
}
