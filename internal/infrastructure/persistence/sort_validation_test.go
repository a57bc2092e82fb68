package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascending lower", "asc", "ASC"},
		{"ascending padded", "  ASC ", "ASC"},
		{"descending", "desc", "DESC"},
		{"empty defaults to desc", "", "DESC"},
		{"garbage defaults to desc", "sideways", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"allowed field", "batch_number", "batch_number"},
		{"trimmed", " unit_cost ", "unit_cost"},
		{"empty uses default", "", "received_at"},
		{"unknown uses default", "supplier_ref", "received_at"},
		{"injection attempt uses default", "received_at; DROP TABLE stock_batches", "received_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, BatchSortFields, "received_at"))
		})
	}
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "occurred_at DESC, id DESC", orderClause("", "", MovementSortFields, "occurred_at"))
	assert.Equal(t, "quantity ASC, id ASC", orderClause("quantity", "asc", MovementSortFields, "occurred_at"))
}
