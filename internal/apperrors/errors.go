// Package apperrors defines the error taxonomy shared by the service and
// HTTP layers. Validation and stock-conflict errors carry enough structured
// detail to render a user-facing message without a second query.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested entity does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrEmptyOrder is returned when an order creation request has no items.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrStoreUnavailable wraps infrastructure failures (lock timeout,
	// connection loss). Requests failing with it are safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateProductError reports the same product appearing more than once in
// an order creation request.
type DuplicateProductError struct {
	ProductID int64
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %d appears more than once in order", e.ProductID)
}

// ProductNotFoundError reports an order line referencing an unknown product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// BelowMinimumAmountError reports an order total under the configured
// minimum, carrying both sides of the comparison.
type BelowMinimumAmountError struct {
	Minimum  decimal.Decimal
	Computed decimal.Decimal
}

func (e *BelowMinimumAmountError) Error() string {
	return fmt.Sprintf("order amount %s is below the minimum %s",
		e.Computed.StringFixed(2), e.Minimum.StringFixed(2))
}

// InsufficientStockError reports a stock shortfall discovered under the row
// lock. The whole order attempt is rolled back when it occurs.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// InvalidTransitionError reports a disallowed order status transition.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Code returns a stable machine-readable identifier for err, used in HTTP
// error bodies and metrics labels.
func Code(err error) string {
	var (
		validationErr *ValidationError
		duplicateErr  *DuplicateProductError
		notFoundErr   *ProductNotFoundError
		belowMinErr   *BelowMinimumAmountError
		stockErr      *InsufficientStockError
		transitionErr *InvalidTransitionError
	)
	switch {
	case errors.Is(err, ErrEmptyOrder):
		return "empty_order"
	case errors.As(err, &duplicateErr):
		return "duplicate_product"
	case errors.As(err, &notFoundErr):
		return "product_not_found"
	case errors.As(err, &belowMinErr):
		return "below_minimum_order_amount"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &transitionErr):
		return "invalid_status_transition"
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	}
	return "internal_error"
}

// HTTPStatus maps err to an HTTP response code. Validation and
// stock-conflict errors are 400-class; infrastructure errors are 5xx.
func HTTPStatus(err error) int {
	var transitionErr *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	switch Code(err) {
	case "empty_order", "duplicate_product", "product_not_found",
		"below_minimum_order_amount", "insufficient_stock", "validation_error":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether the caller may retry the request unchanged.
// Stock conflicts are retryable (stock may be restored); validation errors
// are not.
func IsRetryable(err error) bool {
	var stockErr *InsufficientStockError
	return errors.As(err, &stockErr) || errors.Is(err, ErrStoreUnavailable)
}
