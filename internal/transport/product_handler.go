package transport

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VariantRequest describes one variant in a product payload
type VariantRequest struct {
	Size  string  `json:"size"`
	Color string  `json:"color"`
	Stock int     `json:"stock" validate:"gte=0"`
	Price float64 `json:"price" validate:"gte=0"`
}

// CreateProductRequest is the payload for product creation
type CreateProductRequest struct {
	Name          string           `json:"name" validate:"required"`
	Description   string           `json:"description"`
	Price         *float64         `json:"price" validate:"required,gte=0"`
	CategoryID    *string          `json:"category_id" validate:"omitempty,uuid"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	Variants      []VariantRequest `json:"variants" validate:"dive"`
	ImageURLs     []string         `json:"image_urls"`
	Discount      *float64         `json:"discount" validate:"omitempty,gte=0,lte=100"`
	SKU           string           `json:"sku"`
	IsActive      *bool            `json:"is_active"`
}

// UpdateProductRequest is the partial-merge payload for product update
type UpdateProductRequest struct {
	Name          *string           `json:"name"`
	Description   *string           `json:"description"`
	Price         *float64          `json:"price" validate:"omitempty,gte=0"`
	CategoryID    *string           `json:"category_id" validate:"omitempty,uuid"`
	StockQuantity *int              `json:"stock_quantity" validate:"omitempty,gte=0"`
	Variants      *[]VariantRequest `json:"variants" validate:"omitempty,dive"`
	ImageURLs     *[]string         `json:"image_urls"`
	Discount      *float64          `json:"discount" validate:"omitempty,gte=0,lte=100"`
	SKU           *string           `json:"sku"`
	IsActive      *bool             `json:"is_active"`
}

// ProductView is a product plus its derived discounted price
type ProductView struct {
	*domain.Product
	DiscountedPrice float64 `json:"discounted_price"`
}

// NewProductView computes the derived attributes for a response
func NewProductView(p *domain.Product) ProductView {
	return ProductView{Product: p, DiscountedPrice: p.DiscountedPrice()}
}

// ProductResponse wraps a single product
type ProductResponse struct {
	Success bool        `json:"success"`
	Data    ProductView `json:"data"`
}

// ProductListResponse wraps a product list
type ProductListResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []ProductView `json:"data"`
}

func newProductListResponse(products []*domain.Product) ProductListResponse {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return ProductListResponse{Success: true, Count: len(views), Data: views}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes. Writes and the low-stock
// view require an admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Get("/low-stock", h.ListLowStock)
			r.Put("/{id}", h.Update)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         *req.Price,
		StockQuantity: req.StockQuantity,
		Variants:      toVariantInputs(req.Variants),
		ImageURLs:     req.ImageURLs,
		Discount:      req.Discount,
		SKU:           req.SKU,
		IsActive:      req.IsActive,
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		input.CategoryID = &categoryID
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondProductWriteError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{Success: true, Data: NewProductView(product)})
}

// List handles filtered product listing. Unrecognized or malformed filter
// values are treated as absent.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Name:    r.URL.Query().Get("name"),
		InStock: r.URL.Query().Get("inStock") == "true",
	}

	if raw := r.URL.Query().Get("category"); raw != "" {
		if categoryID, err := uuid.Parse(raw); err == nil {
			filter.CategoryID = &categoryID
		}
	}
	if raw := r.URL.Query().Get("minPrice"); raw != "" {
		if minPrice, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &minPrice
		}
	}
	if raw := r.URL.Query().Get("maxPrice"); raw != "" {
		if maxPrice, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &maxPrice
		}
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Product listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductListResponse(products))
}

// ListLowStock handles the low-stock product query. The threshold defaults
// to 10 when absent or non-numeric.
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := domain.DefaultLowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			threshold = parsed
		}
	}

	products, err := h.catalog.ListLowStockProducts(r.Context(), threshold)
	if err != nil {
		h.logger.Error("Low stock product listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list low stock products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductListResponse(products))
}

// Get handles fetching a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}

		h.logger.Error("Product fetch failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Success: true, Data: NewProductView(product)})
}

// Update handles partial product update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ImageURLs:     req.ImageURLs,
		Discount:      req.Discount,
		SKU:           req.SKU,
		IsActive:      req.IsActive,
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		input.CategoryID = &categoryID
	}
	if req.Variants != nil {
		variants := toVariantInputs(*req.Variants)
		input.Variants = &variants
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.respondProductWriteError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Success: true, Data: NewProductView(product)})
}

// Delete handles product deletion; ledger rows are left in place.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}

		h.logger.Error("Product deletion failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{}})
}

func (h *ProductHandler) respondProductWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "Category not found")
	case errors.Is(err, repository.ErrSKUAlreadyExists):
		middleware.RespondWithError(w, http.StatusBadRequest, "Product with this SKU already exists")
	case errors.Is(err, service.ErrProductNameRequired),
		errors.Is(err, service.ErrPriceNegative),
		errors.Is(err, service.ErrStockNegative),
		errors.Is(err, service.ErrDiscountOutOfRange):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Product write failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func toVariantInputs(reqs []VariantRequest) []service.VariantInput {
	inputs := make([]service.VariantInput, 0, len(reqs))
	for _, v := range reqs {
		inputs = append(inputs, service.VariantInput{
			Size:  v.Size,
			Color: v.Color,
			Stock: v.Stock,
			Price: v.Price,
		})
	}
	return inputs
}
