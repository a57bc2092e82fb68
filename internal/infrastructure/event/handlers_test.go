package event

import (
	"context"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/cache"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stockKey() inventory.StockKey {
	return inventory.StockKey{WarehouseID: uuid.New(), ProductID: uuid.New(), PackagingID: uuid.New()}
}

func consumedEvent(key inventory.StockKey) *inventory.StockConsumedEvent {
	return &inventory.StockConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockConsumed, inventory.AggregateTypeStock, uuid.New()),
		Key:             key,
		Method:          "fifo",
		MovementType:    inventory.MovementTypeConsumption,
		Quantity:        decimal.NewFromInt(4),
		UnitCost:        decimal.NewFromInt(10),
		BatchCount:      2,
	}
}

func TestPreviewInvalidationHandler(t *testing.T) {
	previews := cache.NewInMemoryPreviewCache(time.Minute)
	t.Cleanup(func() { _ = previews.Close() })
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewPreviewInvalidationHandler(previews))

	ctx := context.Background()
	touched, untouched := stockKey(), stockKey()
	touchedKey := appcosting.PreviewCacheKey(touched, "fifo", decimal.NewFromInt(1), "")
	untouchedKey := appcosting.PreviewCacheKey(untouched, "fifo", decimal.NewFromInt(1), "")
	previews.Set(ctx, touchedKey, &appcosting.CostPreviewResponse{Method: "fifo"})
	previews.Set(ctx, untouchedKey, &appcosting.CostPreviewResponse{Method: "fifo"})

	require.NoError(t, bus.Publish(ctx, consumedEvent(touched)))

	_, ok := previews.Get(ctx, touchedKey)
	assert.False(t, ok)
	_, ok = previews.Get(ctx, untouchedKey)
	assert.True(t, ok)
}

func TestMetricsHandler(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := telemetry.NewCostingMetrics(provider.Meter(telemetry.MeterName))
	require.NoError(t, err)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewMetricsHandler(metrics))

	key := stockKey()
	warehouse := key.WarehouseID
	require.NoError(t, bus.Publish(context.Background(),
		consumedEvent(key),
		inventory.NewEmptyBatchesDeactivatedEvent(&warehouse, 3),
	))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["costing.stock.movements"])
	assert.True(t, names["costing.consumption.batches"])
	assert.True(t, names["costing.batches.deactivated"])
	assert.False(t, names["costing.cost_reports"])
}

func TestAuditLogHandler(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	key := stockKey()
	require.NoError(t, bus.Publish(context.Background(),
		consumedEvent(key),
		inventory.NewEmptyBatchesDeactivatedEvent(nil, 1),
	))

	entries := recorded.FilterMessage("domain event").All()
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.EventTypeStockConsumed, entries[0].ContextMap()["event_type"])
	assert.Equal(t, key.String(), entries[0].ContextMap()["stock_key"])
	_, hasKey := entries[1].ContextMap()["stock_key"]
	assert.False(t, hasKey)
}
