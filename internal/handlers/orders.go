package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// currentUserID returns the authenticated user id set by the identity
// middleware.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserIDKey)
}

// CreateOrder handles POST /api/v1/orders.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	userID := currentUserID(c)
	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
	}).Info("Order created")

	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, apperrors.NewValidationError("id", "order id must be an integer"))
		return
	}

	order, err := h.orderService.GetOrderForUser(c.Request.Context(), orderID, currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders.
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, apperrors.NewValidationError("id", "order id must be an integer"))
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
