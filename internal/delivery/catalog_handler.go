package delivery

import (
	"net/http"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogHandler serves the public storefront routes.
type CatalogHandler struct {
	catalog    *usecase.CatalogUseCase
	categories usecase.CategoryUseCase
	log        *logrus.Logger
}

func NewCatalogHandler(catalog *usecase.CatalogUseCase, categories usecase.CategoryUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:    catalog,
		categories: categories,
		log:        logger,
	}
}

func (h *CatalogHandler) RegisterRoutes(router gin.IRouter) {
	g := router.Group("/catalog")
	{
		g.GET("/products", h.Browse)
		g.GET("/products/:slug", h.ProductDetail)
		g.GET("/categories", h.Categories)
		g.GET("/categories/:slug/products", h.CategoryProducts)
		g.GET("/collections", h.Collections)
		g.GET("/collections/:slug/products", h.CollectionProducts)
		g.POST("/tags/preview", h.PreviewTags)
	}
}

type categoryPage struct {
	Category *domain.Category    `json:"category"`
	Page     *domain.ProductPage `json:"page"`
}

type collectionPage struct {
	Collection *domain.Collection  `json:"collection"`
	Page       *domain.ProductPage `json:"page"`
}

func (h *CatalogHandler) selection(c *gin.Context) (domain.Selection, bool) {
	sel, err := parseSelection(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return sel, false
	}
	return sel, true
}

func (h *CatalogHandler) Browse(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	page, err := h.catalog.Browse(c.Request.Context(), sel)
	if err != nil {
		fail(c, "Failed to browse catalog", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", page)
}

func (h *CatalogHandler) ProductDetail(c *gin.Context) {
	detail, err := h.catalog.ProductDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, "Failed to retrieve product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", detail)
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, "Failed to retrieve categories", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *CatalogHandler) CategoryProducts(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	cat, page, err := h.catalog.CategoryProducts(c.Request.Context(), c.Param("slug"), sel)
	if err != nil {
		fail(c, "Failed to retrieve category products", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", categoryPage{Category: cat, Page: page})
}

func (h *CatalogHandler) Collections(c *gin.Context) {
	list, err := h.catalog.Collections(c.Request.Context())
	if err != nil {
		fail(c, "Failed to retrieve collections", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Collections retrieved successfully", list)
}

func (h *CatalogHandler) CollectionProducts(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	coll, page, err := h.catalog.CollectionProducts(c.Request.Context(), c.Param("slug"), sel)
	if err != nil {
		fail(c, "Failed to retrieve collection products", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", collectionPage{Collection: coll, Page: page})
}

func (h *CatalogHandler) PreviewTags(c *gin.Context) {
	var req usecase.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Tags previewed", h.catalog.PreviewTags(req))
}
