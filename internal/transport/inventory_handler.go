package transport

import (
	"errors"
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryVariantRequest is the optional variant sub-key on a record
type InventoryVariantRequest struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// CreateInventoryRequest is the payload for record creation
type CreateInventoryRequest struct {
	ProductID         string                   `json:"product_id" validate:"required,uuid"`
	Variant           *InventoryVariantRequest `json:"variant"`
	Quantity          *int                     `json:"quantity" validate:"required,gte=0"`
	LowStockThreshold *int                     `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// UpdateInventoryRequest is the partial-merge payload for record update
type UpdateInventoryRequest struct {
	Variant           *InventoryVariantRequest `json:"variant"`
	Quantity          *int                     `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int                     `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// InventoryView is a record joined with its product, when it still exists
type InventoryView struct {
	*domain.InventoryRecord
	Product *ProductView `json:"product,omitempty"`
}

func newInventoryView(record *domain.InventoryRecord) InventoryView {
	view := InventoryView{InventoryRecord: record}
	if record.Product != nil {
		pv := NewProductView(record.Product)
		view.Product = &pv
	}
	return view
}

// InventoryResponse wraps a single record
type InventoryResponse struct {
	Success   bool          `json:"success"`
	Inventory InventoryView `json:"inventory"`
}

// InventoryListResponse wraps a record list
type InventoryListResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    []InventoryView `json:"data"`
}

func newInventoryListResponse(records []*domain.InventoryRecord) InventoryListResponse {
	views := make([]InventoryView, 0, len(records))
	for _, record := range records {
		views = append(views, newInventoryView(record))
	}
	return InventoryListResponse{Success: true, Count: len(views), Data: views}
}

// InventoryHandler handles HTTP requests for inventory ledger operations
type InventoryHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/low-stock", h.ListLowStock)
		r.Get("/product/{productId}", h.ListByProduct)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles inventory record creation
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInventoryRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Inventory validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	input := service.CreateInventoryInput{
		ProductID:         productID,
		Quantity:          *req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	}
	if req.Variant != nil {
		input.VariantSize = req.Variant.Size
		input.VariantColor = req.Variant.Color
	}

	record, err := h.inventory.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		if errors.Is(err, service.ErrQuantityNegative) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.Error("Inventory creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create inventory record")
		return
	}

	h.logger.Info("Inventory record created",
		zap.String("inventory_id", record.ID.String()),
		zap.String("product_id", record.ProductID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, InventoryResponse{Success: true, Inventory: newInventoryView(record)})
}

// List handles listing all inventory records joined with their products
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.inventory.List(r.Context())
	if err != nil {
		h.logger.Error("Inventory listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newInventoryListResponse(records))
}

// ListLowStock handles the inventory low-stock query
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	records, err := h.inventory.ListLowStock(r.Context())
	if err != nil {
		h.logger.Error("Low stock listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list low stock items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newInventoryListResponse(records))
}

// ListByProduct handles listing the records of one product. A product with
// no tracked inventory yields an empty list.
func (h *InventoryHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	records, err := h.inventory.ListByProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}

		h.logger.Error("Inventory listing by product failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newInventoryListResponse(records))
}

// Get handles fetching a single inventory record
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}

	record, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Inventory not found")
			return
		}

		h.logger.Error("Inventory fetch failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get inventory record")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, InventoryResponse{Success: true, Inventory: newInventoryView(record)})
}

// Update handles partial inventory record update
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}

	var req UpdateInventoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Inventory validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateInventoryInput{
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	}
	if req.Variant != nil {
		input.VariantSize = &req.Variant.Size
		input.VariantColor = &req.Variant.Color
	}

	record, err := h.inventory.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Inventory not found")
			return
		}
		if errors.Is(err, service.ErrQuantityNegative) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.Error("Inventory update failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update inventory record")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, InventoryResponse{Success: true, Inventory: newInventoryView(record)})
}

// Delete handles inventory record deletion
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}

	if err := h.inventory.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Inventory not found")
			return
		}

		h.logger.Error("Inventory deletion failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete inventory record")
		return
	}

	h.logger.Info("Inventory record deleted", zap.String("inventory_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Inventory deleted successfully"})
}
