package domain

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a sub-SKU of a product distinguished by size and color,
// optionally carrying its own stock count and price override.
type Variant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Size      string    `json:"size" db:"size"`
	Color     string    `json:"color" db:"color"`
	Stock     int       `json:"stock" db:"stock"`
	Price     float64   `json:"price" db:"price"`
}

// Product represents a sellable catalog entry. StockQuantity is a
// denormalized aggregate; the inventory ledger is the canonical source
// of per-variant stock.
type Product struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Price         float64    `json:"price" db:"price"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Category      *Category  `json:"category,omitempty" db:"-"`
	StockQuantity int        `json:"stock_quantity" db:"stock_quantity"`
	Variants      []Variant  `json:"variants" db:"-"`
	ImageURLs     []string   `json:"image_urls" db:"-"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	Discount      float64    `json:"discount" db:"discount"`
	SKU           string     `json:"sku,omitempty" db:"sku"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// DiscountedPrice returns the price after applying the percentage discount.
// Derived on read, never persisted.
func (p *Product) DiscountedPrice() float64 {
	return p.Price * (1 - p.Discount/100)
}

// Category represents a product category. Names are unique.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
