package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewValidationError(shared.CodeValidation, "bad"), http.StatusBadRequest, ErrCodeValidation},
		{"invalid quantity", shared.NewValidationError(shared.CodeInvalidQuantity, "qty"), http.StatusBadRequest, ErrCodeInvalidQuantity},
		{"invalid cost", shared.NewValidationError(shared.CodeInvalidCost, "cost"), http.StatusBadRequest, ErrCodeInvalidCost},
		{"rule scope", shared.NewValidationError(shared.CodeInvalidRuleScope, "scope"), http.StatusBadRequest, ErrCodeInvalidRuleScope},
		{"unit in use", shared.NewValidationError(shared.CodeUnitInUse, "unit"), http.StatusBadRequest, ErrCodeUnitInUse},
		{"not found", shared.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load batch: %w", shared.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, ErrCodeAlreadyExists},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, ErrCodeConcurrencyConflict},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, ErrCodeInvalidState},
		{"insufficient sentinel", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, ErrCodeInsufficientStock},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err, "req-1")
			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestFromError_InternalHidesMessage(t *testing.T) {
	_, resp := FromError(errors.New("pq: password authentication failed"), "")
	assert.NotContains(t, resp.Error.Message, "password")
}

func TestFromError_InsufficientStockContext(t *testing.T) {
	err := fmt.Errorf("consume: %w", shared.NewInsufficientStockError(decimal.NewFromInt(1000), decimal.NewFromInt(150)))

	status, resp := FromError(err, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, ErrCodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, map[string]string{"requested": "1000", "available": "150"}, resp.Error.Context)
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidMethod, NormalizeErrorCode(shared.CodeInvalidMethod))
	assert.Equal(t, ErrCodeInvalidMovementType, NormalizeErrorCode(shared.CodeInvalidMovementType))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_ELSE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total      int64
		pageSize   int
		totalPages int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
		assert.Equal(t, tt.totalPages, resp.Meta.TotalPages, "total=%d size=%d", tt.total, tt.pageSize)
	}
}

func TestErrorEnvelopeJSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "abc",
		[]ValidationDetail{{Field: "warehouse_id", Message: "This field is required"}})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errInfo := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errInfo["code"])
	assert.Equal(t, "abc", errInfo["request_id"])
	assert.Len(t, errInfo["details"], 1)
}

func TestListQueryDefaults(t *testing.T) {
	q := ListQuery{}.WithDefaults()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)

	q = ListQuery{Page: 3, PageSize: 50}.WithDefaults()
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.PageSize)
}
