package telemetry

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewCostingMetrics_NilMeter(t *testing.T) {
	m, err := NewCostingMetrics(nil)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestCostingMetrics_Record(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewCostingMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordReceipt(ctx, "purchase", 10)
	m.RecordConsumption(ctx, "fifo", "sale", 4, 2)
	m.RecordConsumption(ctx, "fifo", "sale", 1, 1)
	m.RecordReservationChange(ctx, 3)
	m.RecordReservationChange(ctx, -1)
	m.RecordCostReport(ctx)
	m.RecordBatchesDeactivated(ctx, 5)

	metrics := collect(t, reader)

	movements := metrics["costing.stock.movements"].Data.(metricdata.Sum[int64])
	byDirection := map[string]int64{}
	for _, dp := range movements.DataPoints {
		dir, _ := dp.Attributes.Value(attribute.Key("direction"))
		byDirection[dir.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"in": 1, "out": 2}, byDirection)

	quantity := metrics["costing.stock.quantity"].Data.(metricdata.Sum[float64])
	var total float64
	for _, dp := range quantity.DataPoints {
		total += dp.Value
	}
	assert.InDelta(t, 15.0, total, 1e-9)

	batches := metrics["costing.consumption.batches"].Data.(metricdata.Histogram[int64])
	require.Len(t, batches.DataPoints, 1)
	assert.Equal(t, uint64(2), batches.DataPoints[0].Count)
	assert.Equal(t, int64(3), batches.DataPoints[0].Sum)

	reservations := metrics["costing.stock.reservation_changes"].Data.(metricdata.Sum[int64])
	assert.Len(t, reservations.DataPoints, 2)

	reports := metrics["costing.cost_reports"].Data.(metricdata.Sum[int64])
	require.Len(t, reports.DataPoints, 1)
	assert.Equal(t, int64(1), reports.DataPoints[0].Value)

	deactivated := metrics["costing.batches.deactivated"].Data.(metricdata.Sum[int64])
	require.Len(t, deactivated.DataPoints, 1)
	assert.Equal(t, int64(5), deactivated.DataPoints[0].Value)
}

func TestRegisterPoolMetrics(t *testing.T) {
	_, err := RegisterPoolMetrics(nil, nil)
	require.Error(t, err)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	var sqlDB *sql.DB
	sqlDB, err = db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(3)
	t.Cleanup(func() { _ = sqlDB.Close() })

	reader, provider := newTestMeter(t)
	reg, err := RegisterPoolMetrics(provider.Meter(MeterName), sqlDB)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	metrics := collect(t, reader)
	maxOpen := metrics["db.pool.connections_max"].Data.(metricdata.Gauge[int64])
	require.Len(t, maxOpen.DataPoints, 1)
	assert.Equal(t, int64(3), maxOpen.DataPoints[0].Value)

	conns := metrics["db.pool.connections"].Data.(metricdata.Gauge[int64])
	assert.Len(t, conns.DataPoints, 2)
}
