package service

import (
	"context"
	"errors"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

var ErrQuantityNegative = errors.New("quantity cannot be negative")

// CreateInventoryInput carries the fields accepted on record creation.
type CreateInventoryInput struct {
	ProductID         uuid.UUID
	VariantSize       string
	VariantColor      string
	Quantity          int
	LowStockThreshold *int
}

// UpdateInventoryInput carries a partial-field merge; nil fields are left
// unchanged.
type UpdateInventoryInput struct {
	Quantity          *int
	LowStockThreshold *int
	VariantSize       *string
	VariantColor      *string
}

// InventoryService owns the inventory ledger: quantity non-negativity,
// threshold defaults, and the low-stock query.
type InventoryService interface {
	Create(ctx context.Context, input CreateInventoryInput) (*domain.InventoryRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.InventoryRecord, error)
	List(ctx context.Context) ([]*domain.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryRecord, error)
	ListLowStock(ctx context.Context) ([]*domain.InventoryRecord, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInventoryInput) (*domain.InventoryRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(inventoryRepo repository.InventoryRepository, productRepo repository.ProductRepository) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
	}
}

// Create adds a ledger record for an existing product. The threshold
// defaults to 10 when omitted.
func (s *inventoryService) Create(ctx context.Context, input CreateInventoryInput) (*domain.InventoryRecord, error) {
	if input.Quantity < 0 {
		return nil, ErrQuantityNegative
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		return nil, ErrQuantityNegative
	}

	product, err := s.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &domain.InventoryRecord{
		ID:                uuid.New(),
		ProductID:         input.ProductID,
		Product:           product,
		VariantSize:       input.VariantSize,
		VariantColor:      input.VariantColor,
		Quantity:          input.Quantity,
		LowStockThreshold: domain.DefaultLowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.LowStockThreshold != nil {
		record.LowStockThreshold = *input.LowStockThreshold
	}

	if err := s.inventoryRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// Get returns one record joined with its product when it still exists.
func (s *inventoryService) Get(ctx context.Context, id uuid.UUID) (*domain.InventoryRecord, error) {
	record, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.attachProducts(ctx, []*domain.InventoryRecord{record})
	return record, nil
}

// List returns all records joined with their products
func (s *inventoryService) List(ctx context.Context) ([]*domain.InventoryRecord, error) {
	records, err := s.inventoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.attachProducts(ctx, records)
	return records, nil
}

// ListByProduct returns the records for one product. A product with no
// tracked inventory yields an empty list; an unknown product id fails
// with the product's not-found error.
func (s *inventoryService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryRecord, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	records, err := s.inventoryRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		record.Product = product
	}

	return records, nil
}

// ListLowStock returns every record whose quantity is at or below its own
// threshold, joined with the product.
func (s *inventoryService) ListLowStock(ctx context.Context) ([]*domain.InventoryRecord, error) {
	records, err := s.inventoryRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	s.attachProducts(ctx, records)
	return records, nil
}

// Update merges the supplied fields into an existing record, applying the
// same validation as create.
func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, input UpdateInventoryInput) (*domain.InventoryRecord, error) {
	record, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, ErrQuantityNegative
		}
		record.Quantity = *input.Quantity
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, ErrQuantityNegative
		}
		record.LowStockThreshold = *input.LowStockThreshold
	}
	if input.VariantSize != nil {
		record.VariantSize = *input.VariantSize
	}
	if input.VariantColor != nil {
		record.VariantColor = *input.VariantColor
	}

	record.UpdatedAt = time.Now()

	if err := s.inventoryRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.attachProducts(ctx, []*domain.InventoryRecord{record})
	return record, nil
}

// Delete removes a record independently of its product.
func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.inventoryRepo.Delete(ctx, id)
}

// attachProducts joins records with their catalog entries. Records whose
// product has since been deleted keep a nil Product rather than failing
// the whole read.
func (s *inventoryService) attachProducts(ctx context.Context, records []*domain.InventoryRecord) {
	cache := map[uuid.UUID]*domain.Product{}

	for _, record := range records {
		if product, ok := cache[record.ProductID]; ok {
			record.Product = product
			continue
		}

		product, err := s.productRepo.FindByID(ctx, record.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				cache[record.ProductID] = nil
				continue
			}
			continue
		}

		cache[record.ProductID] = product
		record.Product = product
	}
}
