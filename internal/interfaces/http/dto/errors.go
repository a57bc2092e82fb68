package dto

import (
	"errors"
	"net/http"

	"github.com/erp/costing/internal/domain/shared"
)

// API error codes. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeInvalidQuantity     = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidCost         = "ERR_INVALID_COST"
	ErrCodeInvalidPackaging    = "ERR_INVALID_PACKAGING"
	ErrCodeInvalidRuleScope    = "ERR_INVALID_RULE_SCOPE"
	ErrCodeInvalidMethod       = "ERR_INVALID_METHOD"
	ErrCodeInvalidMovementType = "ERR_INVALID_MOVEMENT_TYPE"
	ErrCodeUnitInUse           = "ERR_UNIT_IN_USE"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
)

// domainCodes maps domain error codes onto API codes
var domainCodes = map[string]string{
	shared.CodeValidation:          ErrCodeValidation,
	shared.CodeInvalidQuantity:     ErrCodeInvalidQuantity,
	shared.CodeInvalidCost:         ErrCodeInvalidCost,
	shared.CodeInvalidPackaging:    ErrCodeInvalidPackaging,
	shared.CodeInvalidRuleScope:    ErrCodeInvalidRuleScope,
	shared.CodeInvalidMethod:       ErrCodeInvalidMethod,
	shared.CodeInvalidMovementType: ErrCodeInvalidMovementType,
	shared.CodeUnitInUse:           ErrCodeUnitInUse,
	"INVALID_INPUT":                ErrCodeInvalidInput,
	"NOT_FOUND":                    ErrCodeNotFound,
	"ALREADY_EXISTS":               ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":         ErrCodeConcurrencyConflict,
	"INVALID_STATE":                ErrCodeInvalidState,
	"INSUFFICIENT_STOCK":           ErrCodeInsufficientStock,
}

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidQuantity:     http.StatusBadRequest,
	ErrCodeInvalidCost:         http.StatusBadRequest,
	ErrCodeInvalidPackaging:    http.StatusBadRequest,
	ErrCodeInvalidRuleScope:    http.StatusBadRequest,
	ErrCodeInvalidMethod:       http.StatusBadRequest,
	ErrCodeInvalidMovementType: http.StatusBadRequest,
	ErrCodeUnitInUse:           http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the status for an API code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain code to its API code. Unknown codes
// are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}

// FromError builds the status and error envelope for err. Anything that is
// not a domain error becomes an opaque 500.
func FromError(err error, requestID string) (int, Response) {
	var insufficient *shared.InsufficientStockError
	if errors.As(err, &insufficient) {
		resp := NewErrorResponseWithRequestID(ErrCodeInsufficientStock, insufficient.Error(), requestID)
		resp.Error.Context = map[string]string{
			"requested": insufficient.Requested.String(),
			"available": insufficient.Available.String(),
		}
		return http.StatusUnprocessableEntity, resp
	}

	if de, ok := shared.AsDomainError(err); ok {
		code := NormalizeErrorCode(de.Code)
		return GetHTTPStatus(code), NewErrorResponseWithRequestID(code, de.Message, requestID)
	}

	return http.StatusInternalServerError,
		NewErrorResponseWithRequestID(ErrCodeInternal, "An unexpected error occurred", requestID)
}
