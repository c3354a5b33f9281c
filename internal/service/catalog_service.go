package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryHasProducts  = errors.New("cannot delete category with associated products")
	ErrProductNameRequired  = errors.New("product name is required")
	ErrPriceNegative        = errors.New("price cannot be negative")
	ErrStockNegative        = errors.New("stock quantity cannot be negative")
	ErrDiscountOutOfRange   = errors.New("discount must be between 0 and 100")
)

// VariantInput describes one product variant in a create or update request.
type VariantInput struct {
	Size  string
	Color string
	Stock int
	Price float64
}

// CreateProductInput carries the fields accepted on product creation.
// Pointer fields distinguish "omitted" from zero values.
type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	CategoryID    *uuid.UUID
	StockQuantity *int
	Variants      []VariantInput
	ImageURLs     []string
	Discount      *float64
	SKU           string
	IsActive      *bool
}

// UpdateProductInput carries a partial-field merge; nil fields are left
// unchanged.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	CategoryID    *uuid.UUID
	StockQuantity *int
	Variants      *[]VariantInput
	ImageURLs     *[]string
	Discount      *float64
	SKU           *string
	IsActive      *bool
}

// CatalogService owns categories and products. Product writes go through
// the reconciliation step that keeps the inventory ledger in line with
// embedded variant stock; category deletion is blocked while products
// reference the category.
type CatalogService interface {
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// CreateCategory creates a category with a unique name. The FindByName
// pre-check gives a friendlier error; the unique index closes the race.
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrCategoryAlreadyExists
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// ListCategories returns all categories
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// GetCategory returns one category by id
func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

// UpdateCategory replaces a category's name and description
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*domain.Category, error) {
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Description = description

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory removes a category unless any product still references it.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category references: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasProducts
	}

	return s.categoryRepo.Delete(ctx, id)
}

// CreateProduct validates the input, resolves the category reference, and
// persists the product together with its seed ledger rows in one
// transaction. Nothing is written when the category does not resolve.
func (s *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, ErrProductNameRequired
	}
	if input.Price < 0 {
		return nil, ErrPriceNegative
	}
	if input.Discount != nil && (*input.Discount < 0 || *input.Discount > 100) {
		return nil, ErrDiscountOutOfRange
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, ErrStockNegative
	}
	for _, v := range input.Variants {
		if v.Stock < 0 || v.Price < 0 {
			return nil, ErrStockNegative
		}
	}

	category, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Category:    category,
		ImageURLs:   input.ImageURLs,
		IsActive:    true,
		SKU:         input.SKU,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
	}

	product.Variants = buildVariants(product.ID, input.Variants)

	// The ledger is canonical: with variants the aggregate stock is
	// derived from them unless an explicit quantity was supplied.
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	} else if len(product.Variants) > 0 {
		product.StockQuantity = sumVariantStock(product.Variants)
	}

	ledger := seedLedger(product, now)

	if err := s.productRepo.Create(ctx, product, ledger); err != nil {
		return nil, err
	}

	return product, nil
}

// GetProduct returns one product joined with its category
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListProducts returns products matching the filter
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// ListLowStockProducts returns products with aggregate stock at or below
// the threshold.
func (s *catalogService) ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return s.productRepo.ListLowStock(ctx, threshold)
}

// UpdateProduct merges the supplied fields into the existing product,
// re-validating anything supplied. Ledger rows are refreshed only when
// stock-bearing fields are present.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrProductNameRequired
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrPriceNegative
		}
		product.Price = *input.Price
	}
	if input.Discount != nil {
		if *input.Discount < 0 || *input.Discount > 100 {
			return nil, ErrDiscountOutOfRange
		}
		product.Discount = *input.Discount
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, ErrStockNegative
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.ImageURLs != nil {
		product.ImageURLs = *input.ImageURLs
	}
	if input.CategoryID != nil {
		category, err := s.resolveCategory(ctx, input.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
		product.Category = category
	}

	stockTouched := input.StockQuantity != nil
	if input.Variants != nil {
		for _, v := range *input.Variants {
			if v.Stock < 0 || v.Price < 0 {
				return nil, ErrStockNegative
			}
		}
		product.Variants = buildVariants(product.ID, *input.Variants)
		if input.StockQuantity == nil {
			product.StockQuantity = sumVariantStock(product.Variants)
		}
		stockTouched = true
	}

	product.UpdatedAt = time.Now()

	// Ledger rows stay untouched unless explicit stock fields arrived.
	var ledger []*domain.InventoryRecord
	if stockTouched {
		ledger = seedLedger(product, product.UpdatedAt)
	}

	if err := s.productRepo.Update(ctx, product, ledger); err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct removes a product unconditionally. Ledger rows are not
// cleaned up; they are deleted independently.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// resolveCategory looks up an optional category reference. A supplied id
// that does not resolve aborts the whole operation.
func (s *catalogService) resolveCategory(ctx context.Context, id *uuid.UUID) (*domain.Category, error) {
	if id == nil {
		return nil, nil
	}
	return s.categoryRepo.FindByID(ctx, *id)
}

func buildVariants(productID uuid.UUID, inputs []VariantInput) []domain.Variant {
	variants := make([]domain.Variant, 0, len(inputs))
	for _, v := range inputs {
		variants = append(variants, domain.Variant{
			ID:        uuid.New(),
			ProductID: productID,
			Size:      v.Size,
			Color:     v.Color,
			Stock:     v.Stock,
			Price:     v.Price,
		})
	}
	return variants
}

func sumVariantStock(variants []domain.Variant) int {
	total := 0
	for _, v := range variants {
		total += v.Stock
	}
	return total
}

// seedLedger derives the ledger rows implied by a product's stock fields:
// one per variant, or one aggregate row when variants are unused and a
// positive quantity exists.
func seedLedger(product *domain.Product, now time.Time) []*domain.InventoryRecord {
	records := []*domain.InventoryRecord{}

	for _, v := range product.Variants {
		records = append(records, &domain.InventoryRecord{
			ID:                uuid.New(),
			ProductID:         product.ID,
			VariantSize:       v.Size,
			VariantColor:      v.Color,
			Quantity:          v.Stock,
			LowStockThreshold: domain.DefaultLowStockThreshold,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	if len(records) == 0 && product.StockQuantity > 0 {
		records = append(records, &domain.InventoryRecord{
			ID:                uuid.New(),
			ProductID:         product.ID,
			Quantity:          product.StockQuantity,
			LowStockThreshold: domain.DefaultLowStockThreshold,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	return records
}
