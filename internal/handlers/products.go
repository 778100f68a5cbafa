package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

func parseProductFilter(c *gin.Context) (*models.ProductListFilter, error) {
	filter := &models.ProductListFilter{
		Category: c.Query("category"),
		OrderBy:  c.Query("ordering"),
	}

	if raw := c.Query("price_min"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperrors.NewValidationError("price_min", "must be a number")
		}
		filter.PriceMin = &d
	}
	if raw := c.Query("price_max"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperrors.NewValidationError("price_max", "must be a number")
		}
		filter.PriceMax = &d
	}

	return filter, nil
}

// ListProducts handles GET /api/v1/products.
func (h *Handlers) ListProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		handleError(c, err)
		return
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct handles GET /api/v1/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, apperrors.NewValidationError("id", "product id must be an integer"))
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/:id.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, apperrors.NewValidationError("id", "product id must be an integer"))
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, apperrors.NewValidationError("id", "product id must be an integer"))
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
