package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBatch is one receipt of stock at a single unit cost.
// InitialQuantity and UnitCost never change; RemainingQuantity only goes down.
type StockBatch struct {
	shared.BaseEntity
	StockKey
	BatchNumber       string
	InitialQuantity   decimal.Decimal
	RemainingQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	ReceivedAt        time.Time
	ExpiryDate        *time.Time
	SupplierRef       string
	IsActive          bool
}

// StockBatchParams carries the inputs of a new batch
type StockBatchParams struct {
	Key         StockKey
	BatchNumber string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ReceivedAt  time.Time
	ExpiryDate  *time.Time
	SupplierRef string
}

// NewStockBatch validates params and creates an active batch
func NewStockBatch(p StockBatchParams) (*StockBatch, error) {
	if p.Key.IsZero() {
		return nil, shared.NewValidationError(shared.CodeValidation, "warehouse, product and packaging are required")
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "batch quantity must be positive, got %s", p.Quantity)
	}
	if !shared.FitsStorageScale(p.Quantity) {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "batch quantity allows at most %d decimal places, got %s", shared.StorageScale, p.Quantity)
	}
	if p.UnitCost.LessThan(shared.MinUnitCost) {
		return nil, shared.NewValidationError(shared.CodeInvalidCost, "unit cost must be at least %s, got %s", shared.MinUnitCost, p.UnitCost)
	}
	if !shared.FitsStorageScale(p.UnitCost) {
		return nil, shared.NewValidationError(shared.CodeInvalidCost, "unit cost allows at most %d decimal places, got %s", shared.StorageScale, p.UnitCost)
	}
	number := strings.TrimSpace(p.BatchNumber)
	if number == "" || len(number) > 50 {
		return nil, shared.NewValidationError(shared.CodeValidation, "batch number must be 1-50 characters")
	}
	receivedAt := p.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	return &StockBatch{
		BaseEntity:        shared.NewBaseEntity(),
		StockKey:          p.Key,
		BatchNumber:       number,
		InitialQuantity:   p.Quantity,
		RemainingQuantity: p.Quantity,
		UnitCost:          p.UnitCost,
		ReceivedAt:        receivedAt,
		ExpiryDate:        p.ExpiryDate,
		SupplierRef:       strings.TrimSpace(p.SupplierRef),
		IsActive:          true,
	}, nil
}

// BatchSequenceWidth is the zero-padded width of generated sequence numbers.
// Batch numbers break received_at ties by string order, so the pad must
// cover every sequence a single day can reach.
const BatchSequenceWidth = 6

// GenerateBatchNumber builds the B<yyyymmdd>-<seq> number used when the
// receiver does not supply one
func GenerateBatchNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%0*d", BatchNumberPrefix(day), BatchSequenceWidth, seq)
}

// BatchNumberPrefix returns the generated-number prefix for a day
func BatchNumberPrefix(day time.Time) string {
	return "B" + day.UTC().Format("20060102") + "-"
}

// Deduct removes quantity from the batch. The batch must hold at least quantity.
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "deduct quantity must be positive")
	}
	if !b.IsActive {
		return fmt.Errorf("%w: batch %s is inactive", shared.ErrInvalidState, b.BatchNumber)
	}
	if quantity.GreaterThan(b.RemainingQuantity) {
		return shared.NewInsufficientStockError(quantity, b.RemainingQuantity)
	}
	b.RemainingQuantity = b.RemainingQuantity.Sub(quantity)
	b.Touch()
	return nil
}

// Deactivate hides the batch from allocation. Batches are never deleted.
func (b *StockBatch) Deactivate() {
	b.IsActive = false
	b.Touch()
}

// IsDepleted returns true once nothing remains
func (b *StockBatch) IsDepleted() bool {
	return !b.RemainingQuantity.IsPositive()
}

// IsExpired returns true if the expiry date is before now
func (b *StockBatch) IsExpired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now)
}

// RemainingValue returns remaining * unit cost
func (b *StockBatch) RemainingValue() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.UnitCost)
}

// Entry returns the allocation view of the batch
func (b *StockBatch) Entry() strategy.BatchEntry {
	return strategy.BatchEntry{
		BatchID:           b.ID,
		BatchNumber:       b.BatchNumber,
		RemainingQuantity: b.RemainingQuantity,
		UnitCost:          b.UnitCost,
		ReceivedAt:        b.ReceivedAt,
	}
}

// BatchEntries converts active batches into allocation entries
func BatchEntries(batches []StockBatch) []strategy.BatchEntry {
	entries := make([]strategy.BatchEntry, 0, len(batches))
	for i := range batches {
		if batches[i].IsActive {
			entries = append(entries, batches[i].Entry())
		}
	}
	return entries
}

// BatchIndex maps batch ids to pointers into batches
func BatchIndex(batches []StockBatch) map[uuid.UUID]*StockBatch {
	idx := make(map[uuid.UUID]*StockBatch, len(batches))
	for i := range batches {
		idx[batches[i].ID] = &batches[i]
	}
	return idx
}
