package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Product       string `json:"product,omitempty"`
	Available     *int   `json:"available,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindOutOfStock
	KindUpstreamPayment
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound    = "ORDER_NOT_FOUND"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeMissingColor     = "MISSING_COLOR"
	ErrCodeInvalidStatus    = "INVALID_STATUS"
	ErrCodeOutOfStock       = "OUT_OF_STOCK"
	ErrCodeUpstreamPayment  = "UPSTREAM_PAYMENT_ERROR"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// DomainError is a business-rule failure surfaced to the caller.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string

	// Product and Available are only set for out-of-stock failures.
	Product   string
	Available *int
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Kind and Code so sentinels compare equal to freshly built errors.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports a malformed or missing field.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, ErrCodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports an unknown entity.
func NewNotFoundError(code, format string, args ...any) *DomainError {
	return NewDomainError(KindNotFound, code, fmt.Sprintf(format, args...))
}

// NewForbiddenError reports an authenticated caller acting outside its ownership.
func NewForbiddenError(format string, args ...any) *DomainError {
	return NewDomainError(KindForbidden, ErrCodeForbidden, fmt.Sprintf(format, args...))
}

// NewOutOfStockError reports a quantity that exceeds resolvable stock.
// available is nil when the remaining count is unknown.
func NewOutOfStockError(productName string, available *int) *DomainError {
	msg := fmt.Sprintf("%s is out of stock", productName)
	if available != nil {
		msg = fmt.Sprintf("%s is out of stock (%d available)", productName, *available)
	}
	return &DomainError{
		Kind:      KindOutOfStock,
		Code:      ErrCodeOutOfStock,
		Message:   msg,
		Product:   productName,
		Available: available,
	}
}

// NewUpstreamPaymentError wraps a payment gateway failure.
func NewUpstreamPaymentError(err error) *DomainError {
	return NewDomainError(KindUpstreamPayment, ErrCodeUpstreamPayment, fmt.Sprintf("payment gateway error: %v", err))
}

// AsDomainError unwraps err into a *DomainError when possible.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrProductNotFound = NewDomainError(KindNotFound, ErrCodeProductNotFound, "product not found")
	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "order not found")
	ErrInvalidQuantity = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrMissingColor    = NewDomainError(KindValidation, ErrCodeMissingColor, "missing color selection")
	ErrUnauthorised    = NewDomainError(KindUnauthorized, ErrCodeUnauthorised, "caller identity is required")
	ErrSellerOnly      = NewDomainError(KindForbidden, ErrCodeForbidden, "only sellers may perform this action")
	ErrNotOrderSeller  = NewDomainError(KindForbidden, ErrCodeForbidden, "caller does not own any product in this order")
	ErrNotOrderBuyer   = NewDomainError(KindForbidden, ErrCodeForbidden, "caller does not own this order")
)
