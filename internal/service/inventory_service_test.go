package service

import (
	"context"
	"errors"
	"testing"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newInventoryServiceForTest() (InventoryService, *mockInventoryRepository, *mockProductRepository) {
	productRepo := newMockProductRepository()
	inventoryRepo := newMockInventoryRepository()
	return NewInventoryService(inventoryRepo, productRepo), inventoryRepo, productRepo
}

func seedProduct(t *testing.T, productRepo *mockProductRepository, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "Boot",
		Price:         50,
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := productRepo.Create(context.Background(), product, nil); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

// Property: records cannot be created against unknown products
func TestProperty_InventoryRequiresExistingProduct(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any unknown product id fails with the product's not-found error", prop.ForAll(
		func(quantity int) bool {
			service, inventoryRepo, _ := newInventoryServiceForTest()

			_, err := service.Create(context.Background(), CreateInventoryInput{
				ProductID: uuid.New(),
				Quantity:  quantity,
			})
			if !errors.Is(err, repository.ErrProductNotFound) {
				t.Logf("FAIL: expected ErrProductNotFound, got: %v", err)
				return false
			}
			return len(inventoryRepo.records) == 0
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestInventoryCreate_NegativeValuesRejected(t *testing.T) {
	service, inventoryRepo, productRepo := newInventoryServiceForTest()
	product := seedProduct(t, productRepo, 0)

	_, err := service.Create(context.Background(), CreateInventoryInput{
		ProductID: product.ID,
		Quantity:  -1,
	})
	if !errors.Is(err, ErrQuantityNegative) {
		t.Fatalf("expected ErrQuantityNegative, got: %v", err)
	}

	_, err = service.Create(context.Background(), CreateInventoryInput{
		ProductID:         product.ID,
		Quantity:          1,
		LowStockThreshold: intPtr(-1),
	})
	if !errors.Is(err, ErrQuantityNegative) {
		t.Fatalf("expected ErrQuantityNegative for negative threshold, got: %v", err)
	}

	if len(inventoryRepo.records) != 0 {
		t.Fatal("rejected input must not be persisted")
	}
}

func TestInventoryCreate_ThresholdDefaults(t *testing.T) {
	service, _, productRepo := newInventoryServiceForTest()
	product := seedProduct(t, productRepo, 0)
	ctx := context.Background()

	record, err := service.Create(ctx, CreateInventoryInput{
		ProductID: product.ID,
		Quantity:  3,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.LowStockThreshold != domain.DefaultLowStockThreshold {
		t.Fatalf("threshold %d, expected default %d", record.LowStockThreshold, domain.DefaultLowStockThreshold)
	}

	explicit, err := service.Create(ctx, CreateInventoryInput{
		ProductID:         product.ID,
		Quantity:          3,
		LowStockThreshold: intPtr(0),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if explicit.LowStockThreshold != 0 {
		t.Fatalf("explicit zero threshold must stick, got %d", explicit.LowStockThreshold)
	}
}

func TestInventoryListByProduct(t *testing.T) {
	service, _, productRepo := newInventoryServiceForTest()
	ctx := context.Background()

	tracked := seedProduct(t, productRepo, 0)
	untracked := seedProduct(t, productRepo, 0)

	for i := 0; i < 2; i++ {
		if _, err := service.Create(ctx, CreateInventoryInput{ProductID: tracked.ID, Quantity: i}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	records, err := service.ListByProduct(ctx, tracked.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if record.Product == nil || record.Product.ID != tracked.ID {
			t.Fatal("records must be joined with their product")
		}
	}

	// A known product with no records is an empty list, not an error.
	records, err = service.ListByProduct(ctx, untracked.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty list, got %v", records)
	}

	// An unknown product is the error case.
	_, err = service.ListByProduct(ctx, uuid.New())
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got: %v", err)
	}
}

// Property: a record is low stock exactly when quantity <= its own threshold
func TestProperty_LowStockUsesPerRecordThreshold(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("listing matches the per-record inclusive comparison", prop.ForAll(
		func(quantity int, threshold int) bool {
			service, _, productRepo := newInventoryServiceForTest()
			ctx := context.Background()
			product := seedProduct(t, productRepo, 0)

			record, err := service.Create(ctx, CreateInventoryInput{
				ProductID:         product.ID,
				Quantity:          quantity,
				LowStockThreshold: &threshold,
			})
			if err != nil {
				t.Logf("FAIL: create failed: %v", err)
				return false
			}

			low, err := service.ListLowStock(ctx)
			if err != nil {
				t.Logf("FAIL: list failed: %v", err)
				return false
			}

			listed := false
			for _, r := range low {
				if r.ID == record.ID {
					listed = true
					if r.Product == nil || r.Product.ID != product.ID {
						t.Logf("FAIL: low-stock records must be joined with their product")
						return false
					}
				}
			}
			return listed == (quantity <= threshold)
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestInventoryUpdate_PartialMerge(t *testing.T) {
	service, _, productRepo := newInventoryServiceForTest()
	ctx := context.Background()
	product := seedProduct(t, productRepo, 0)

	record, err := service.Create(ctx, CreateInventoryInput{
		ProductID:    product.ID,
		VariantSize:  "M",
		VariantColor: "red",
		Quantity:     9,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := service.Update(ctx, record.ID, UpdateInventoryInput{Quantity: intPtr(2)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Quantity != 2 {
		t.Fatalf("quantity %d, expected 2", updated.Quantity)
	}
	if updated.VariantSize != "M" || updated.VariantColor != "red" {
		t.Fatal("omitted fields must be left unchanged")
	}
	if updated.LowStockThreshold != domain.DefaultLowStockThreshold {
		t.Fatal("omitted threshold must be left unchanged")
	}

	_, err = service.Update(ctx, record.ID, UpdateInventoryInput{Quantity: intPtr(-1)})
	if !errors.Is(err, ErrQuantityNegative) {
		t.Fatalf("expected ErrQuantityNegative, got: %v", err)
	}

	_, err = service.Update(ctx, uuid.New(), UpdateInventoryInput{Quantity: intPtr(1)})
	if !errors.Is(err, repository.ErrInventoryNotFound) {
		t.Fatalf("expected ErrInventoryNotFound, got: %v", err)
	}
}

func TestInventoryRecordsOutliveProduct(t *testing.T) {
	service, _, productRepo := newInventoryServiceForTest()
	ctx := context.Background()
	product := seedProduct(t, productRepo, 0)

	record, err := service.Create(ctx, CreateInventoryInput{ProductID: product.ID, Quantity: 5})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := productRepo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	// The record is still readable; the join simply yields no product.
	got, err := service.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Product != nil {
		t.Fatal("deleted product must not be attached")
	}
	if got.Quantity != 5 {
		t.Fatalf("quantity %d, expected 5", got.Quantity)
	}
}
