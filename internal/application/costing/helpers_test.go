package costing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	svc        *appcosting.Service
	catalog    *appcosting.CatalogService
	scope      appcosting.TransactionScope
	repos      appcosting.TransactionalRepositories
	strategies appcosting.CostStrategyProvider
	events     *recordingPublisher
	key        inventory.StockKey
}

func newFixture(t *testing.T, cfg appcosting.ServiceConfig) *fixture {
	t.Helper()
	db, err := persistence.Open(sqlite.Open("file::memory:"), persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate())

	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)

	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	svc := appcosting.NewService(scope, repos, registry, cfg, nil)
	events := &recordingPublisher{}
	svc.SetEventPublisher(events)

	catalog := appcosting.NewCatalogService(scope, repos, nil)
	f := &fixture{svc: svc, catalog: catalog, scope: scope, repos: repos, strategies: registry, events: events}
	f.key = f.registerPackaging(t, nil, 1)
	return f
}

// registerPackaging creates a unit, product and packaging and returns a key
// in a fresh warehouse
func (f *fixture) registerPackaging(t *testing.T, categoryID *uuid.UUID, perPackage int64) inventory.StockKey {
	t.Helper()
	ctx := context.Background()
	unit, err := f.catalog.RegisterUnit(ctx, appcosting.RegisterUnitRequest{Name: "Piece", Symbol: "pc-" + uuid.NewString()[:8], IsBase: true})
	require.NoError(t, err)
	product, err := f.catalog.RegisterProduct(ctx, appcosting.RegisterProductRequest{
		Code:       "SKU-" + uuid.NewString()[:8],
		Name:       "Widget",
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	pkg, err := f.catalog.RegisterPackaging(ctx, appcosting.RegisterPackagingRequest{
		ProductID:          product.ID,
		UnitID:             unit.ID,
		QuantityPerPackage: decimal.NewFromInt(perPackage),
	})
	require.NoError(t, err)
	return inventory.NewStockKey(uuid.New(), product.ID, pkg.ID)
}

func keyRequest(key inventory.StockKey) appcosting.StockKeyRequest {
	return appcosting.StockKeyRequest{WarehouseID: key.WarehouseID, ProductID: key.ProductID, PackagingID: key.PackagingID}
}

func (f *fixture) receive(t *testing.T, key inventory.StockKey, number string, qty, cost int64, at time.Time) *appcosting.ReceiveResponse {
	t.Helper()
	resp, err := f.svc.Receive(context.Background(), appcosting.ReceiveRequest{
		StockKeyRequest: keyRequest(key),
		Quantity:        decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(cost),
		BatchNumber:     number,
		ReceivedAt:      &at,
	})
	require.NoError(t, err)
	return resp
}

// seedAB receives batch A 100@10 and, an hour later, batch B 50@12
func (f *fixture) seedAB(t *testing.T) (a, b *appcosting.ReceiveResponse) {
	t.Helper()
	a = f.receive(t, f.key, "A", 100, 10, t0)
	b = f.receive(t, f.key, "B", 50, 12, t0.Add(time.Hour))
	return a, b
}

func (f *fixture) consume(qty int64) (*appcosting.ConsumeResponse, error) {
	return f.svc.Consume(context.Background(), appcosting.ConsumeRequest{
		StockKeyRequest: keyRequest(f.key),
		Quantity:        decimal.NewFromInt(qty),
	})
}

func (f *fixture) remaining(t *testing.T, key inventory.StockKey) map[string]decimal.Decimal {
	t.Helper()
	page, err := f.svc.ListBatches(context.Background(), inventory.BatchFilter{
		WarehouseID:   &key.WarehouseID,
		ProductID:     &key.ProductID,
		PackagingID:   &key.PackagingID,
		IncludeEmpty:  true,
		IncludeClosed: true,
	})
	require.NoError(t, err)
	out := make(map[string]decimal.Decimal, len(page.Items))
	for _, b := range page.Items {
		out[b.BatchNumber] = b.RemainingQuantity
	}
	return out
}

func (f *fixture) requireBalanced(t *testing.T, key inventory.StockKey) {
	t.Helper()
	report, err := f.svc.VerifyConservation(context.Background(), key)
	require.NoError(t, err)
	require.True(t, report.Balanced, "stock %s, batches %s", report.StockQuantity, report.BatchQuantity)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
