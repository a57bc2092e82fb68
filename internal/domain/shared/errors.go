package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors created with NewDomainError match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Validation error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeInvalidCost         = "INVALID_COST"
	CodeInvalidPackaging    = "INVALID_PACKAGING"
	CodeInvalidRuleScope    = "INVALID_RULE_SCOPE"
	CodeInvalidMethod       = "INVALID_METHOD"
	CodeInvalidMovementType = "INVALID_MOVEMENT_TYPE"
	CodeUnitInUse           = "UNIT_IN_USE"
)

var validationCodes = map[string]struct{}{
	CodeValidation:          {},
	CodeInvalidQuantity:     {},
	CodeInvalidCost:         {},
	CodeInvalidPackaging:    {},
	CodeInvalidRuleScope:    {},
	CodeInvalidMethod:       {},
	CodeInvalidMovementType: {},
	CodeUnitInUse:           {},
	"INVALID_INPUT":         {},
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// NewValidationError creates a validation error with one of the validation codes
func NewValidationError(code, format string, args ...any) *DomainError {
	if _, ok := validationCodes[code]; !ok {
		code = CodeValidation
	}
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// IsValidationError reports whether err is a validation rejection
func IsValidationError(err error) bool {
	de, ok := AsDomainError(err)
	if !ok {
		return false
	}
	_, isValidation := validationCodes[de.Code]
	return isValidation
}

// InsufficientStockError is returned when an allocation cannot be fully
// satisfied. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s",
		e.Requested.String(), e.Available.String())
}

// Unwrap exposes the sentinel so callers can use errors.Is / errors.As
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
