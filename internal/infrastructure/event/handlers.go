package event

import (
	"context"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PreviewInvalidationHandler drops cached cost previews of a position
// whenever its batches or reservation change
type PreviewInvalidationHandler struct {
	cache appcosting.PreviewCache
}

// NewPreviewInvalidationHandler creates the handler
func NewPreviewInvalidationHandler(cache appcosting.PreviewCache) *PreviewInvalidationHandler {
	return &PreviewInvalidationHandler{cache: cache}
}

// EventTypes implements shared.EventHandler
func (h *PreviewInvalidationHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockReceived,
		inventory.EventTypeStockConsumed,
		inventory.EventTypeStockReservationChanged,
	}
}

// Handle implements shared.EventHandler
func (h *PreviewInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if keyed, ok := event.(inventory.KeyedEvent); ok {
		h.cache.Invalidate(ctx, keyed.StockKey())
	}
	return nil
}

// MetricsHandler turns committed events into costing metrics
type MetricsHandler struct {
	metrics *telemetry.CostingMetrics
}

// NewMetricsHandler creates the handler
func NewMetricsHandler(metrics *telemetry.CostingMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes implements shared.EventHandler
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockReceived,
		inventory.EventTypeStockConsumed,
		inventory.EventTypeStockReservationChanged,
		inventory.EventTypeEmptyBatchesDeactivated,
		inventory.EventTypeCostCalculationGenerated,
	}
}

// Handle implements shared.EventHandler
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.StockReceivedEvent:
		h.metrics.RecordReceipt(ctx, string(e.MovementType), e.Quantity.InexactFloat64())
	case *inventory.StockConsumedEvent:
		h.metrics.RecordConsumption(ctx, e.Method, string(e.MovementType), e.Quantity.InexactFloat64(), e.BatchCount)
	case *inventory.ReservationChangedEvent:
		h.metrics.RecordReservationChange(ctx, e.Delta.InexactFloat64())
	case *inventory.EmptyBatchesDeactivatedEvent:
		h.metrics.RecordBatchesDeactivated(ctx, e.Count)
	case *inventory.CostCalculationGeneratedEvent:
		h.metrics.RecordCostReport(ctx)
	}
	return nil
}

// AuditLogHandler writes every event to the log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes implements shared.EventHandler; empty means all events
func (h *AuditLogHandler) EventTypes() []string { return nil }

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if keyed, ok := event.(inventory.KeyedEvent); ok {
		fields = append(fields, zap.String("stock_key", keyed.StockKey().String()))
	}
	h.logger.Info("domain event", fields...)
	return nil
}
