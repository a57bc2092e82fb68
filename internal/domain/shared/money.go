package shared

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places reported for unit costs and values
const MoneyScale = 2

// StorageScale is the number of decimal places every stored quantity and
// batch cost keeps
const StorageScale = 4

// MinUnitCost is the smallest accepted per-unit batch cost
var MinUnitCost = decimal.NewFromFloat(0.01)

// RoundMoney rounds to MoneyScale places, half away from zero.
// Costs are never negative so this is half-up in practice.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// FitsStorageScale reports whether d has no significant digits beyond
// StorageScale places. Trailing zeros do not count.
func FitsStorageScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(StorageScale))
}
