package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shailum17/BazaarBuddy-sub000/internal/middleware"
	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/service/catalog"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// CatalogHandler product catalog HTTP handler
type CatalogHandler struct {
	catalogService *catalog.Service
}

// NewCatalogHandler creates a catalog handler
func NewCatalogHandler(catalogService *catalog.Service) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// GetProduct fetches one product for display
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "Invalid product id")
		return
	}

	p, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, p)
}

// ListProducts lists a supplier's products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	supplierID, err := strconv.ParseUint(c.Query("supplier_id"), 10, 64)
	if err != nil || supplierID == 0 {
		utils.Error(c, utils.CodeInvalidParam, "Invalid supplier_id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	products, total, err := h.catalogService.ListBySupplier(c.Request.Context(), supplierID, page, pageSize)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessPageResponse(c, products, total, page, pageSize)
}

// optionalString maps an empty request field to a NULL column
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Unit        string   `json:"unit" binding:"required"`
	Images      []string `json:"images,omitempty"`
	Price       int64    `json:"price" binding:"required"`
	Quantity    int      `json:"quantity" binding:"required"`
}

// CreateProduct registers a product under the calling supplier
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Error(c, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(c)
	if role != model.RoleSupplier {
		utils.Error(c, utils.CodeForbidden, "Only suppliers can create products")
		return
	}

	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body: "+err.Error())
		return
	}

	var v utils.ValidationCollector
	if req.Price <= 0 {
		v.Addf("price must be positive")
	}
	if req.Quantity < 0 {
		v.Addf("quantity cannot be negative")
	}
	if err := v.Err(); err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	p := &model.Product{
		SupplierID:  userID,
		Name:        req.Name,
		Description: optionalString(req.Description),
		Category:    optionalString(req.Category),
		Unit:        optionalString(req.Unit),
		Images:      model.JSONArray(req.Images),
		Price:       req.Price,
		Quantity:    req.Quantity,
		IsAvailable: req.Quantity > 0,
	}
	if err := h.catalogService.CreateProduct(c.Request.Context(), p); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, p)
}
