package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BatchSortFields contains allowed sort fields for stock batches
var BatchSortFields = map[string]bool{
	"created_at":         true,
	"received_at":        true,
	"batch_number":       true,
	"expiry_date":        true,
	"unit_cost":          true,
	"remaining_quantity": true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"occurred_at":   true,
	"created_at":    true,
	"movement_type": true,
	"quantity":      true,
}

// StockSortFields contains allowed sort fields for stock projections
var StockSortFields = map[string]bool{
	"updated_at": true,
	"quantity":   true,
	"cost_price": true,
}

// CostCalculationSortFields contains allowed sort fields for cost reports
var CostCalculationSortFields = map[string]bool{
	"calculated_at": true,
	"total_value":   true,
	"average_cost":  true,
}

// orderClause builds a safe ORDER BY from a filter, with id as tie breaker
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(orderBy, allowed, defaultField)
	return field + " " + ValidateSortOrder(orderDir) + ", id " + ValidateSortOrder(orderDir)
}
