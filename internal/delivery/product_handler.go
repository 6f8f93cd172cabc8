package delivery

import (
	"net/http"
	"strconv"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	useCase usecase.ProductUseCase
	log     *logrus.Logger
}

func NewProductHandler(uc usecase.ProductUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProductByID)
		products.PATCH("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
	router.POST("/admin/retag", h.Retag)
}

// productInput is the create payload. Tags accept the "type:value" list
// format used by the merchandising sheet.
type productInput struct {
	domain.Product
	Tags string `json:"tags"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.log.Warnf("Failed to bind JSON for create product: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	product := in.Product
	product.Tags = tagging.ParseTags(in.Tags)

	created, err := h.useCase.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		h.log.Warnf("Failed to create product '%s': %v", product.Name, err)
		fail(c, "Failed to create product", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Product created successfully", created)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.useCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		fail(c, "Failed to retrieve product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.log.Warnf("Failed to bind JSON for update product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: no fields provided for update")
		return
	}

	updated, err := h.useCase.UpdateProduct(c.Request.Context(), id, updates)
	if err != nil {
		h.log.Warnf("Failed to update product ID %d: %v", id, err)
		fail(c, "Failed to update product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product updated successfully", updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.useCase.DeleteProduct(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete product ID %d: %v", id, err)
		fail(c, "Failed to delete product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var products []domain.Product
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		categoryID, err := strconv.Atoi(categoryIDStr)
		if err != nil || categoryID <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
			return
		}
		products, err = h.useCase.ListProductsByCategory(c.Request.Context(), categoryID, limit, offset)
		if err != nil {
			fail(c, "Failed to retrieve products", err)
			return
		}
	} else {
		products, err = h.useCase.ListProducts(c.Request.Context(), limit, offset)
		if err != nil {
			fail(c, "Failed to retrieve products", err)
			return
		}
	}

	if len(products) == 0 {
		SuccessResponse(c, http.StatusOK, "No products found matching criteria", []domain.Product{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) Retag(c *gin.Context) {
	report, err := h.useCase.Retag(c.Request.Context())
	if err != nil {
		h.log.Errorf("Retag failed: %v", err)
		fail(c, "Failed to retag catalog", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Catalog retagged", report)
}
