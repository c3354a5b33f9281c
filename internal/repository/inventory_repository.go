package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var ErrInventoryNotFound = errors.New("inventory record not found")

// InventoryRepository defines the interface for inventory ledger data access
type InventoryRepository interface {
	Create(ctx context.Context, record *domain.InventoryRecord) error
	Update(ctx context.Context, record *domain.InventoryRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryRecord, error)
	List(ctx context.Context) ([]*domain.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryRecord, error)
	ListLowStock(ctx context.Context) ([]*domain.InventoryRecord, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryColumns = `i.id, i.product_id, i.variant_size, i.variant_color,
	i.quantity, i.low_stock_threshold, i.created_at, i.updated_at`

// Create inserts a new inventory record using parameterized queries
func (r *inventoryRepository) Create(ctx context.Context, record *domain.InventoryRecord) error {
	query := `
		INSERT INTO inventory (id, product_id, variant_size, variant_color, quantity, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.ProductID,
		record.VariantSize,
		record.VariantColor,
		record.Quantity,
		record.LowStockThreshold,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create inventory record: %w", err)
	}

	return nil
}

// Update rewrites an inventory record using parameterized queries
func (r *inventoryRepository) Update(ctx context.Context, record *domain.InventoryRecord) error {
	query := `
		UPDATE inventory
		SET product_id = $2, variant_size = $3, variant_color = $4,
		    quantity = $5, low_stock_threshold = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.ProductID,
		record.VariantSize,
		record.VariantColor,
		record.Quantity,
		record.LowStockThreshold,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update inventory record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrInventoryNotFound
	}

	return nil
}

// Delete removes an inventory record
func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM inventory WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrInventoryNotFound
	}

	return nil
}

// FindByID retrieves an inventory record joined with its product
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory i
		WHERE i.id = $1
	`, inventoryColumns)

	record := &domain.InventoryRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.ProductID,
		&record.VariantSize,
		&record.VariantColor,
		&record.Quantity,
		&record.LowStockThreshold,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("failed to find inventory record: %w", err)
	}

	return record, nil
}

// List retrieves all inventory records in insertion order
func (r *inventoryRepository) List(ctx context.Context) ([]*domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory i
		ORDER BY i.created_at ASC
	`, inventoryColumns)

	return r.queryRecords(ctx, query)
}

// ListByProduct retrieves the records for one product. An empty result is
// not an error; distinguishing unknown products is the caller's concern.
func (r *inventoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory i
		WHERE i.product_id = $1
		ORDER BY i.created_at ASC
	`, inventoryColumns)

	return r.queryRecords(ctx, query, productID)
}

// ListLowStock retrieves every record at or below its own threshold. The
// comparison is inclusive and uses the per-record threshold column.
func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]*domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory i
		WHERE i.quantity <= i.low_stock_threshold
		ORDER BY i.created_at ASC
	`, inventoryColumns)

	return r.queryRecords(ctx, query)
}

func (r *inventoryRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*domain.InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory records: %w", err)
	}
	defer rows.Close()

	records := []*domain.InventoryRecord{}
	for rows.Next() {
		record := &domain.InventoryRecord{}
		err := rows.Scan(
			&record.ID,
			&record.ProductID,
			&record.VariantSize,
			&record.VariantColor,
			&record.Quantity,
			&record.LowStockThreshold,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory records: %w", err)
	}

	return records, nil
}
