package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/service"
)

// Handlers holds all HTTP handlers for the commerce service.
type Handlers struct {
	orderService   *service.OrderService
	productService *service.ProductService
	logger         *log.Entry
}

// New creates a new handlers instance.
func New(orderService *service.OrderService, productService *service.ProductService) *Handlers {
	return &Handlers{
		orderService:   orderService,
		productService: productService,
		logger:         log.WithField("component", "handlers"),
	}
}

// errorBody is the JSON error envelope. Detail fields let clients render a
// precise message without another query.
type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	body := errorBody{
		Error: err.Error(),
		Code:  apperrors.Code(err),
	}

	var stockErr *apperrors.InsufficientStockError
	var belowMinErr *apperrors.BelowMinimumAmountError
	var dupErr *apperrors.DuplicateProductError
	var missingErr *apperrors.ProductNotFoundError
	switch {
	case errors.As(err, &stockErr):
		body.Details = map[string]interface{}{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"available":    stockErr.Available,
			"requested":    stockErr.Requested,
		}
	case errors.As(err, &belowMinErr):
		body.Details = map[string]interface{}{
			"minimum_amount":  belowMinErr.Minimum.StringFixed(2),
			"computed_amount": belowMinErr.Computed.StringFixed(2),
		}
	case errors.As(err, &dupErr):
		body.Details = map[string]interface{}{"product_id": dupErr.ProductID}
	case errors.As(err, &missingErr):
		body.Details = map[string]interface{}{"product_id": missingErr.ProductID}
	}

	c.JSON(apperrors.HTTPStatus(err), body)
}
