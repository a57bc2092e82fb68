package inventory

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostCalculation is a point-in-time cost report for one stock position.
// FIFOCost and LIFOCost are nil when the next-unit cost could not be
// computed; the reason is kept alongside.
type CostCalculation struct {
	shared.BaseEntity
	StockKey
	TotalQuantity         decimal.Decimal
	BaseQuantity          decimal.Decimal
	AverageCost           decimal.Decimal
	FIFOCost              *decimal.Decimal
	LIFOCost              *decimal.Decimal
	FIFOUnavailableReason string
	LIFOUnavailableReason string
	TotalValue            decimal.Decimal
	BatchCount            int
	IsCurrent             bool
	CalculatedAt          time.Time
}

// NewCostCalculation creates a current snapshot from the active batches
func NewCostCalculation(key StockKey, batches []StockBatch, quantityPerPackage decimal.Decimal) *CostCalculation {
	total := decimal.Zero
	value := decimal.Zero
	count := 0
	for i := range batches {
		b := &batches[i]
		if !b.IsActive || b.IsDepleted() {
			continue
		}
		total = total.Add(b.RemainingQuantity)
		value = value.Add(b.RemainingValue())
		count++
	}

	average := decimal.Zero
	if total.IsPositive() {
		average = value.Div(total)
	}

	calc := &CostCalculation{
		BaseEntity:    shared.NewBaseEntity(),
		StockKey:      key,
		TotalQuantity: total,
		BaseQuantity:  total.Mul(quantityPerPackage),
		AverageCost:   shared.RoundMoney(average),
		TotalValue:    shared.RoundMoney(value),
		BatchCount:    count,
		IsCurrent:     true,
	}
	calc.CalculatedAt = calc.CreatedAt
	return calc
}

// SetFIFO records the FIFO next-unit cost or why it is unavailable
func (c *CostCalculation) SetFIFO(cost decimal.Decimal, err error) {
	c.FIFOCost, c.FIFOUnavailableReason = costOrReason(cost, err)
}

// SetLIFO records the LIFO next-unit cost or why it is unavailable
func (c *CostCalculation) SetLIFO(cost decimal.Decimal, err error) {
	c.LIFOCost, c.LIFOUnavailableReason = costOrReason(cost, err)
}

func costOrReason(cost decimal.Decimal, err error) (*decimal.Decimal, string) {
	if err != nil {
		return nil, err.Error()
	}
	rounded := shared.RoundMoney(cost)
	return &rounded, ""
}
