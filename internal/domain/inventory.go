package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLowStockThreshold applies when a record is created without an
// explicit threshold.
const DefaultLowStockThreshold = 10

// InventoryRecord is a ledger entry tracking quantity for a product,
// optionally keyed by a {size, color} variant.
type InventoryRecord struct {
	ID                uuid.UUID `json:"id" db:"id"`
	ProductID         uuid.UUID `json:"product_id" db:"product_id"`
	Product           *Product  `json:"product,omitempty" db:"-"`
	VariantSize       string    `json:"variant_size,omitempty" db:"variant_size"`
	VariantColor      string    `json:"variant_color,omitempty" db:"variant_color"`
	Quantity          int       `json:"quantity" db:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the record is at or below its own threshold.
// The comparison is inclusive.
func (r *InventoryRecord) IsLowStock() bool {
	return r.Quantity <= r.LowStockThreshold
}
