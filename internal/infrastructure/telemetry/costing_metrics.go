package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the costing instruments
const MeterName = "github.com/erp/costing"

// CostingMetrics records stock and cost activity
type CostingMetrics struct {
	movements          metric.Int64Counter
	movedQuantity      metric.Float64Counter
	batchesConsumed    metric.Int64Histogram
	reservationChanges metric.Int64Counter
	costReports        metric.Int64Counter
	batchesDeactivated metric.Int64Counter
}

// NewCostingMetrics creates the instruments on meter
func NewCostingMetrics(meter metric.Meter) (*CostingMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewCostingMetrics: meter cannot be nil")
	}
	var (
		m   CostingMetrics
		err error
	)
	if m.movements, err = meter.Int64Counter("costing.stock.movements",
		metric.WithDescription("Stock movements committed"),
		metric.WithUnit("{movement}")); err != nil {
		return nil, err
	}
	if m.movedQuantity, err = meter.Float64Counter("costing.stock.quantity",
		metric.WithDescription("Quantity moved in or out of stock")); err != nil {
		return nil, err
	}
	if m.batchesConsumed, err = meter.Int64Histogram("costing.consumption.batches",
		metric.WithDescription("Batches touched by one consumption"),
		metric.WithUnit("{batch}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 10, 20, 50)); err != nil {
		return nil, err
	}
	if m.reservationChanges, err = meter.Int64Counter("costing.stock.reservation_changes",
		metric.WithDescription("Reserve and release operations")); err != nil {
		return nil, err
	}
	if m.costReports, err = meter.Int64Counter("costing.cost_reports",
		metric.WithDescription("Cost reports generated")); err != nil {
		return nil, err
	}
	if m.batchesDeactivated, err = meter.Int64Counter("costing.batches.deactivated",
		metric.WithDescription("Empty batches closed by cleanup"),
		metric.WithUnit("{batch}")); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordReceipt counts an inbound movement
func (m *CostingMetrics) RecordReceipt(ctx context.Context, movementType string, quantity float64) {
	attrs := metric.WithAttributes(
		attribute.String("direction", "in"),
		attribute.String("movement_type", movementType),
	)
	m.movements.Add(ctx, 1, attrs)
	m.movedQuantity.Add(ctx, quantity, attrs)
}

// RecordConsumption counts an outbound movement
func (m *CostingMetrics) RecordConsumption(ctx context.Context, method, movementType string, quantity float64, batchCount int) {
	attrs := metric.WithAttributes(
		attribute.String("direction", "out"),
		attribute.String("movement_type", movementType),
		attribute.String("method", method),
	)
	m.movements.Add(ctx, 1, attrs)
	m.movedQuantity.Add(ctx, quantity, attrs)
	m.batchesConsumed.Record(ctx, int64(batchCount), metric.WithAttributes(attribute.String("method", method)))
}

// RecordReservationChange counts a reserve (positive delta) or release
func (m *CostingMetrics) RecordReservationChange(ctx context.Context, delta float64) {
	op := "reserve"
	if delta < 0 {
		op = "release"
	}
	m.reservationChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// RecordCostReport counts a generated cost report
func (m *CostingMetrics) RecordCostReport(ctx context.Context) {
	m.costReports.Add(ctx, 1)
}

// RecordBatchesDeactivated counts batches closed by cleanup
func (m *CostingMetrics) RecordBatchesDeactivated(ctx context.Context, count int64) {
	m.batchesDeactivated.Add(ctx, count)
}
