package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("saving stock: %w", NewDomainError("CONCURRENCY_CONFLICT", "version mismatch"))

	assert.True(t, errors.Is(err, ErrConcurrencyConflict))
	assert.True(t, IsConcurrencyConflict(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestInsufficientStockError(t *testing.T) {
	err := fmt.Errorf("consume: %w", NewInsufficientStockError(decimal.NewFromInt(1000), decimal.NewFromInt(150)))

	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.True(t, ise.Requested.Equal(decimal.NewFromInt(1000)))
	assert.True(t, ise.Available.Equal(decimal.NewFromInt(150)))
	assert.Contains(t, err.Error(), "requested 1000, available 150")

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_STOCK", de.Code)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(CodeInvalidQuantity, "quantity must be positive, got %s", "-1")
	assert.Equal(t, CodeInvalidQuantity, err.Code)
	assert.Equal(t, "quantity must be positive, got -1", err.Message)
	assert.True(t, IsValidationError(err))

	unknown := NewValidationError("SOMETHING_ELSE", "bad")
	assert.Equal(t, CodeValidation, unknown.Code)

	assert.False(t, IsValidationError(ErrNotFound))
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.333333", "10.33"},
		{"10.666666", "10.67"},
		{"10.005", "10.01"},
		{"12", "12"},
	}
	for _, tt := range tests {
		got := RoundMoney(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s -> %s", tt.in, got)
	}
}

func TestFitsStorageScale(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12", true},
		{"0.0001", true},
		{"1.23450000", true},
		{"0.00001", false},
		{"10.00005", false},
		{"-3.12345", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FitsStorageScale(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 10000, OrderDir: "sideways"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, maxPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)

	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, p.TotalPages)
}
