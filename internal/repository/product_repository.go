package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSKUAlreadyExists = errors.New("product with this sku already exists")
)

// ProductFilter holds the recognized, independently optional list
// parameters. Zero values mean "not supplied".
type ProductFilter struct {
	Name       string
	CategoryID *uuid.UUID
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
}

// ProductRepository defines the interface for product data access.
// Create and Update accept the ledger rows derived by the caller and
// persist everything in a single transaction.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error
	Update(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.description, p.price, p.category_id, p.stock_quantity,
	p.is_active, p.discount, p.sku, p.created_at, p.updated_at,
	c.id, c.name, c.description, c.created_at`

// Create inserts a product with its variants, images and seed ledger rows
// in one transaction. A failure at any step rolls back the whole write.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, description, price, category_id, stock_quantity,
			is_active, discount, sku, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.StockQuantity,
		product.IsActive,
		product.Discount,
		nullableString(product.SKU),
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSKUAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := r.insertVariants(ctx, tx, product); err != nil {
		return err
	}
	if err := r.insertImages(ctx, tx, product); err != nil {
		return err
	}
	if err := r.upsertLedger(ctx, tx, product.ID, ledger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product create: %w", err)
	}

	return nil
}

// Update rewrites the product row, replaces variants and images, and
// upserts the supplied ledger rows. A nil ledger leaves the inventory
// untouched.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5,
		    stock_quantity = $6, is_active = $7, discount = $8, sku = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.StockQuantity,
		product.IsActive,
		product.Discount,
		nullableString(product.SKU),
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSKUAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to clear product variants: %w", err)
	}
	if err := r.insertVariants(ctx, tx, product); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to clear product images: %w", err)
	}
	if err := r.insertImages(ctx, tx, product); err != nil {
		return err
	}

	if err := r.upsertLedger(ctx, tx, product.ID, ledger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}

	return nil
}

func (r *productRepository) insertVariants(ctx context.Context, tx *sql.Tx, product *domain.Product) error {
	query := `
		INSERT INTO product_variants (id, product_id, size, color, stock, price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, v := range product.Variants {
		if _, err := tx.ExecContext(ctx, query, v.ID, product.ID, v.Size, v.Color, v.Stock, v.Price, i); err != nil {
			return fmt.Errorf("failed to insert product variant: %w", err)
		}
	}

	return nil
}

func (r *productRepository) insertImages(ctx context.Context, tx *sql.Tx, product *domain.Product) error {
	query := `
		INSERT INTO product_images (product_id, url, position)
		VALUES ($1, $2, $3)
	`

	for i, url := range product.ImageURLs {
		if _, err := tx.ExecContext(ctx, query, product.ID, url, i); err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}

	return nil
}

// upsertLedger updates the ledger row matching each record's variant key,
// inserting it when no row exists yet. Rows for variants not present in
// the slice are left alone.
func (r *productRepository) upsertLedger(ctx context.Context, tx *sql.Tx, productID uuid.UUID, ledger []*domain.InventoryRecord) error {
	updateQuery := `
		UPDATE inventory
		SET quantity = $4, updated_at = $5
		WHERE product_id = $1 AND variant_size = $2 AND variant_color = $3
	`
	insertQuery := `
		INSERT INTO inventory (id, product_id, variant_size, variant_color, quantity, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, rec := range ledger {
		result, err := tx.ExecContext(ctx, updateQuery, productID, rec.VariantSize, rec.VariantColor, rec.Quantity, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to sync inventory record: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			continue
		}

		_, err = tx.ExecContext(
			ctx,
			insertQuery,
			rec.ID,
			productID,
			rec.VariantSize,
			rec.VariantColor,
			rec.Quantity,
			rec.LowStockThreshold,
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create inventory record: %w", err)
		}
	}

	return nil
}

// Delete removes a product unconditionally. Variants and images cascade;
// ledger rows are left behind on purpose and deleted independently.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
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

// FindByID retrieves a product joined with its category, variants and images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}

	return product, nil
}

// List retrieves products matching the filter, joined with their resolved
// category, in insertion order.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	addCondition := func(cond string, arg interface{}) {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf(cond, argIndex)
		args = append(args, arg)
		argIndex++
	}

	if filter.Name != "" {
		addCondition("p.name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.CategoryID != nil {
		addCondition("p.category_id = $%d", *filter.CategoryID)
	}
	if filter.MinPrice != nil {
		addCondition("p.price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCondition("p.price <= $%d", *filter.MaxPrice)
	}
	if filter.InStock {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += "p.stock_quantity > 0"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.created_at ASC
	`, productColumns, whereClause)

	return r.queryProducts(ctx, query, args...)
}

// ListLowStock retrieves products whose aggregate stock is at or below the
// given threshold, joined with their category.
func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.stock_quantity <= $1
		ORDER BY p.created_at ASC
	`, productColumns)

	return r.queryProducts(ctx, query, threshold)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.loadChildren(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// loadChildren populates variants and images for the given products.
func (r *productRepository) loadChildren(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		p.Variants = []domain.Variant{}
		p.ImageURLs = []string{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	variantQuery := `
		SELECT id, product_id, size, color, stock, price
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, position ASC
	`

	rows, err := r.db.QueryContext(ctx, variantQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to list product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v := domain.Variant{}
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock, &v.Price); err != nil {
			return fmt.Errorf("failed to scan product variant: %w", err)
		}
		if p, ok := byID[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating product variants: %w", err)
	}

	imageQuery := `
		SELECT product_id, url
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, position ASC
	`

	imageRows, err := r.db.QueryContext(ctx, imageQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to list product images: %w", err)
	}
	defer imageRows.Close()

	for imageRows.Next() {
		var productID uuid.UUID
		var url string
		if err := imageRows.Scan(&productID, &url); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.ImageURLs = append(p.ImageURLs, url)
		}
	}
	if err = imageRows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var sku sql.NullString
	var categoryID, catID sql.Null[uuid.UUID]
	var catName, catDescription sql.NullString
	var catCreatedAt sql.NullTime

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&categoryID,
		&product.StockQuantity,
		&product.IsActive,
		&product.Discount,
		&sku,
		&product.CreatedAt,
		&product.UpdatedAt,
		&catID,
		&catName,
		&catDescription,
		&catCreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.SKU = sku.String
	if categoryID.Valid {
		id := categoryID.V
		product.CategoryID = &id
	}
	if catID.Valid {
		product.Category = &domain.Category{
			ID:          catID.V,
			Name:        catName.String,
			Description: catDescription.String,
			CreatedAt:   catCreatedAt.Time,
		}
	}

	return product, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
