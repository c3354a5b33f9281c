package service

import (
	"context"
	"strings"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// In-memory repositories mirroring the SQL implementations' behavior.

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	products   *mockProductRepository
}

func newMockCategoryRepository(products *mockProductRepository) *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
		products:   products,
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, exists := m.categories[category.ID]; !exists {
		return repository.ErrCategoryNotFound
	}
	for _, existing := range m.categories {
		if existing.ID != category.ID && existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	count := 0
	for _, p := range m.products.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	order    []uuid.UUID
	// ledgers captures the rows passed to Create and Update, keyed by
	// product. lastUpdateLedger remembers the most recent Update's slice
	// so tests can assert the untouched (nil) case.
	ledgers          map[uuid.UUID][]*domain.InventoryRecord
	lastUpdateLedger []*domain.InventoryRecord
	updateCalled     bool
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		ledgers:  make(map[uuid.UUID][]*domain.InventoryRecord),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error {
	m.products[product.ID] = product
	m.order = append(m.order, product.ID)
	m.ledgers[product.ID] = ledger
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product, ledger []*domain.InventoryRecord) error {
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	m.updateCalled = true
	m.lastUpdateLedger = ledger
	if ledger != nil {
		m.ledgers[product.ID] = append(m.ledgers[product.ID], ledger...)
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, id := range m.order {
		p, exists := m.products[id]
		if !exists {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.InStock && p.StockQuantity <= 0 {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, id := range m.order {
		p, exists := m.products[id]
		if !exists {
			continue
		}
		if p.StockQuantity <= threshold {
			products = append(products, p)
		}
	}
	return products, nil
}

type mockInventoryRepository struct {
	records map[uuid.UUID]*domain.InventoryRecord
	order   []uuid.UUID
}

func newMockInventoryRepository() *mockInventoryRepository {
	return &mockInventoryRepository{
		records: make(map[uuid.UUID]*domain.InventoryRecord),
	}
}

func (m *mockInventoryRepository) Create(ctx context.Context, record *domain.InventoryRecord) error {
	// The SQL implementation never stores the joined product.
	stored := *record
	stored.Product = nil
	m.records[record.ID] = &stored
	m.order = append(m.order, record.ID)
	return nil
}

func (m *mockInventoryRepository) Update(ctx context.Context, record *domain.InventoryRecord) error {
	if _, exists := m.records[record.ID]; !exists {
		return repository.ErrInventoryNotFound
	}
	stored := *record
	stored.Product = nil
	m.records[record.ID] = &stored
	return nil
}

func (m *mockInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.records[id]; !exists {
		return repository.ErrInventoryNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryRecord, error) {
	record, exists := m.records[id]
	if !exists {
		return nil, repository.ErrInventoryNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockInventoryRepository) List(ctx context.Context) ([]*domain.InventoryRecord, error) {
	records := []*domain.InventoryRecord{}
	for _, id := range m.order {
		if r, exists := m.records[id]; exists {
			records = append(records, r)
		}
	}
	return records, nil
}

func (m *mockInventoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryRecord, error) {
	records := []*domain.InventoryRecord{}
	for _, id := range m.order {
		if r, exists := m.records[id]; exists && r.ProductID == productID {
			records = append(records, r)
		}
	}
	return records, nil
}

func (m *mockInventoryRepository) ListLowStock(ctx context.Context) ([]*domain.InventoryRecord, error) {
	records := []*domain.InventoryRecord{}
	for _, id := range m.order {
		if r, exists := m.records[id]; exists && r.Quantity <= r.LowStockThreshold {
			records = append(records, r)
		}
	}
	return records, nil
}

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}
